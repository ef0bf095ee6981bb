package domain

import "time"

// MissingFl32 is the default missing-data sentinel for volumes and grids.
const MissingFl32 float32 = -9999.0

// DefaultBeamWidthDeg is used when a volume does not report its beam width.
const DefaultBeamWidthDeg = 1.0

// Radar identifies the site that produced a volume.
type Radar struct {
	Name   string  `json:"name"`
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
	AltKm  float64 `json:"alt_km,omitempty"`
}

// FieldDescriptor describes one radar moment. Units, Scale and Offset are
// carried through to the grid untouched.
type FieldDescriptor struct {
	Name           string  `json:"name"`
	Units          string  `json:"units,omitempty"`
	IsDiscrete     bool    `json:"discrete,omitempty"`
	FieldFolds     bool    `json:"folds,omitempty"`
	FoldLimitLower float64 `json:"fold_limit_lower,omitempty"`
	FoldRange      float64 `json:"fold_range,omitempty"`
	Scale          float64 `json:"scale,omitempty"`
	Offset         float64 `json:"offset,omitempty"`
}

// Sweep is one constant-elevation scan within a volume.
type Sweep struct {
	FixedAngleDeg float64
}

// Ray is a single beam measurement. Data is indexed by field then gate.
type Ray struct {
	ElevationDeg        float64
	AzimuthDeg          float64
	AzimuthForLimitsDeg float64
	SweepIndex          int
	Data                [][]float32
}

// NGates returns the longest gate run across the ray's fields.
func (r *Ray) NGates() int {
	n := 0
	for _, d := range r.Data {
		n = max(n, len(d))
	}
	return n
}

// Volume is a parsed radar volume with rays flattened across sweeps.
type Volume struct {
	ID            string
	Radar         Radar
	StartTime     time.Time
	BeamWidthHDeg float64
	BeamWidthVDeg float64
	StartRangeKm  float64
	GateSpacingKm float64
	MissingValue  float32
	Fields        []FieldDescriptor
	Sweeps        []Sweep
	Rays          []Ray
}

// SweepRays returns the rays of sweep i, assuming rays are grouped in sweep order.
func (v *Volume) SweepRays(i int) []Ray {
	start, end := -1, -1
	for j := range v.Rays {
		if v.Rays[j].SweepIndex != i {
			if start >= 0 {
				break
			}
			continue
		}
		if start < 0 {
			start = j
		}
		end = j + 1
	}
	if start < 0 {
		return nil
	}
	return v.Rays[start:end]
}
