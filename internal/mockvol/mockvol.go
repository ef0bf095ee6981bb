// Package mockvol builds synthetic radar volumes for tests, fixtures and validation.
package mockvol

import (
	"math"
	"time"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
)

// BaseTime is the start time of generated volumes unless a scenario sets one.
var BaseTime = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

// ValueFunc returns the sample for field ifield of ray iray (azimuth az) at gate igate.
type ValueFunc func(ifield, iray int, az float64, igate int) float32

// Scenario describes a synthetic volume. Every sweep carries NRays rays
// starting at StartAzDeg and stepping DeltaAzDeg.
type Scenario struct {
	ID             string
	Radar          domain.Radar
	StartTime      time.Time
	FixedAnglesDeg []float64
	StartAzDeg     float64
	DeltaAzDeg     float64
	NRays          int
	NGates         int
	BeamWidthDeg   float64
	AzJitterDeg    float64
	Fields         []domain.FieldDescriptor
	Value          ValueFunc
}

// Build generates the volume. Output is deterministic for a given scenario.
func (s Scenario) Build() *domain.Volume {
	start := s.StartTime
	if start.IsZero() {
		start = BaseTime
	}
	vol := &domain.Volume{
		ID:            s.ID,
		Radar:         s.Radar,
		StartTime:     start,
		BeamWidthHDeg: s.BeamWidthDeg,
		BeamWidthVDeg: s.BeamWidthDeg,
		StartRangeKm:  2.125,
		GateSpacingKm: 0.25,
		MissingValue:  domain.MissingFl32,
		Fields:        s.Fields,
		Sweeps:        make([]domain.Sweep, len(s.FixedAnglesDeg)),
		Rays:          make([]domain.Ray, 0, len(s.FixedAnglesDeg)*s.NRays),
	}
	if vol.BeamWidthHDeg <= 0 {
		vol.BeamWidthHDeg = domain.DefaultBeamWidthDeg
		vol.BeamWidthVDeg = domain.DefaultBeamWidthDeg
	}

	for isweep, el := range s.FixedAnglesDeg {
		vol.Sweeps[isweep].FixedAngleDeg = el
		for iray := range s.NRays {
			az := s.StartAzDeg + float64(iray)*s.DeltaAzDeg
			if s.AzJitterDeg != 0 {
				az += s.AzJitterDeg * math.Sin(float64(iray)*1.7+float64(isweep))
			}
			az = normalize(az)
			ray := domain.Ray{
				ElevationDeg:        el + 0.02*math.Sin(float64(iray)),
				AzimuthDeg:          az,
				AzimuthForLimitsDeg: az,
				SweepIndex:          isweep,
				Data:                make([][]float32, len(s.Fields)),
			}
			for ifield := range s.Fields {
				gates := make([]float32, s.NGates)
				for ig := range gates {
					gates[ig] = s.Value(ifield, iray, az, ig)
				}
				ray.Data[ifield] = gates
			}
			vol.Rays = append(vol.Rays, ray)
		}
	}
	return vol
}

// Ramp is a 3-sweep full-circle volume with 36 rays at 10° spacing and one
// field whose value is azimuth/100 at every gate.
func Ramp() Scenario {
	return Scenario{
		ID:             "KTLX-ramp",
		Radar:          domain.Radar{Name: "KTLX", LatDeg: 35.333, LonDeg: -97.278, AltKm: 0.384},
		FixedAnglesDeg: []float64{0.5, 1.5, 2.5},
		DeltaAzDeg:     10,
		NRays:          36,
		NGates:         10,
		BeamWidthDeg:   1,
		Fields:         []domain.FieldDescriptor{{Name: "RAMP", Units: "deg/100"}},
		Value: func(_, _ int, az float64, _ int) float32 {
			return float32(az / 100)
		},
	}
}

// Sector is a two-sweep sector scan from 300° through north to 60° at 1°
// spacing with reflectivity, folded velocity and a discrete class field.
func Sector() Scenario {
	return Scenario{
		ID:             "KFWS-sector",
		Radar:          domain.Radar{Name: "KFWS", LatDeg: 32.573, LonDeg: -97.303, AltKm: 0.208},
		StartTime:      BaseTime.Add(6 * time.Minute),
		FixedAnglesDeg: []float64{0.5, 1.5},
		StartAzDeg:     300,
		DeltaAzDeg:     1,
		NRays:          121,
		NGates:         20,
		BeamWidthDeg:   0.95,
		Fields:         StandardFields(),
		Value:          standardValue,
	}
}

// Dense is a four-sweep full-circle volume at 1° spacing with azimuth jitter.
func Dense() Scenario {
	return Scenario{
		ID:             "KINX-dense",
		Radar:          domain.Radar{Name: "KINX", LatDeg: 36.175, LonDeg: -95.564, AltKm: 0.204},
		StartTime:      BaseTime.Add(12 * time.Minute),
		FixedAnglesDeg: []float64{0.5, 0.9, 1.3, 1.8},
		StartAzDeg:     0.3,
		DeltaAzDeg:     1,
		NRays:          360,
		NGates:         50,
		BeamWidthDeg:   0.95,
		AzJitterDeg:    0.02,
		Fields:         StandardFields(),
		Value:          standardValue,
	}
}

// All returns every named scenario.
func All() []Scenario {
	return []Scenario{Ramp(), Sector(), Dense()}
}

// StandardFields is reflectivity, folded radial velocity and a discrete class field.
func StandardFields() []domain.FieldDescriptor {
	return []domain.FieldDescriptor{
		{Name: "DBZ", Units: "dBZ"},
		{Name: "VEL", Units: "m/s", FieldFolds: true, FoldLimitLower: -27.5, FoldRange: 55},
		{Name: "PID", IsDiscrete: true},
	}
}

func standardValue(ifield, iray int, az float64, igate int) float32 {
	// every 17th gate of every 11th ray is missing
	if iray%11 == 0 && igate%17 == 0 {
		return domain.MissingFl32
	}
	switch ifield {
	case 0:
		return float32(20 + 25*math.Sin(az*math.Pi/90)*math.Exp(-float64(igate)/40))
	case 1:
		// a velocity couplet that aliases across the fold boundary
		v := 35*math.Sin(az*math.Pi/180) + float64(igate)*0.5
		return float32(wrap(v, -27.5, 55))
	default:
		return float32(1 + (iray/10+igate/5)%6)
	}
}

func normalize(az float64) float64 {
	return wrap(az, 0, 360)
}

func wrap(v, lower, rng float64) float64 {
	v = math.Mod(v-lower, rng)
	if v < 0 {
		v += rng
	}
	return lower + v
}
