package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// VolumeMessage is the JSON structure published by the radar ingest service.
type VolumeMessage struct {
	ID            string            `json:"id,omitempty"`
	Radar         Radar             `json:"radar"`
	StartTime     time.Time         `json:"start_time"`
	BeamWidthHDeg float64           `json:"beam_width_h_deg,omitempty"`
	BeamWidthVDeg float64           `json:"beam_width_v_deg,omitempty"`
	StartRangeKm  float64           `json:"start_range_km"`
	GateSpacingKm float64           `json:"gate_spacing_km"`
	MissingValue  *float32          `json:"missing_value,omitempty"`
	Fields        []FieldDescriptor `json:"fields"`
	Sweeps        []SweepMessage    `json:"sweeps"`
}

// SweepMessage is one sweep on the wire with its rays nested.
type SweepMessage struct {
	FixedAngleDeg float64      `json:"fixed_angle_deg"`
	Rays          []RayMessage `json:"rays"`
}

// RayMessage is one ray on the wire. Data holds one gate array per volume
// field, in field order. A null entry means the field is absent on the ray.
type RayMessage struct {
	ElevationDeg        float64     `json:"el"`
	AzimuthDeg          float64     `json:"az"`
	AzimuthForLimitsDeg *float64    `json:"az_for_limits,omitempty"`
	Data                [][]float32 `json:"data"`
}
