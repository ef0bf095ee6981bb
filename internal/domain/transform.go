package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidVolume marks a message that decodes but cannot describe a volume.
var ErrInvalidVolume = errors.New("invalid volume")

// ParseVolume deserializes a RawEvent's value into a Volume.
// Rays are flattened in sweep order and tagged with their sweep index.
func ParseVolume(raw RawEvent) (*Volume, error) {
	var msg VolumeMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return nil, fmt.Errorf("parse volume: %w", err)
	}

	vol := &Volume{
		ID:            msg.ID,
		Radar:         msg.Radar,
		StartTime:     msg.StartTime.UTC(),
		BeamWidthHDeg: positiveOr(msg.BeamWidthHDeg, DefaultBeamWidthDeg),
		BeamWidthVDeg: positiveOr(msg.BeamWidthVDeg, DefaultBeamWidthDeg),
		StartRangeKm:  msg.StartRangeKm,
		GateSpacingKm: msg.GateSpacingKm,
		MissingValue:  MissingFl32,
		Fields:        msg.Fields,
	}
	if msg.MissingValue != nil {
		vol.MissingValue = *msg.MissingValue
	}
	if vol.StartTime.IsZero() {
		vol.StartTime = raw.Timestamp.UTC()
	}

	nRays := 0
	for _, s := range msg.Sweeps {
		nRays += len(s.Rays)
	}
	vol.Sweeps = make([]Sweep, 0, len(msg.Sweeps))
	vol.Rays = make([]Ray, 0, nRays)

	for isweep, s := range msg.Sweeps {
		vol.Sweeps = append(vol.Sweeps, Sweep{FixedAngleDeg: s.FixedAngleDeg})
		for iray, r := range s.Rays {
			if len(r.Data) > len(msg.Fields) {
				return nil, fmt.Errorf("parse volume: sweep %d ray %d has %d data arrays for %d fields: %w",
					isweep, iray, len(r.Data), len(msg.Fields), ErrInvalidVolume)
			}
			azLimits := r.AzimuthDeg
			if r.AzimuthForLimitsDeg != nil {
				azLimits = *r.AzimuthForLimitsDeg
			}
			vol.Rays = append(vol.Rays, Ray{
				ElevationDeg:        r.ElevationDeg,
				AzimuthDeg:          r.AzimuthDeg,
				AzimuthForLimitsDeg: azLimits,
				SweepIndex:          isweep,
				Data:                r.Data,
			})
		}
	}

	if vol.ID == "" {
		vol.ID = generateVolumeID(vol.Radar.Name, vol.StartTime, len(vol.Rays))
	}
	return vol, nil
}

// NewVolumeMessage converts a Volume back to its wire form.
func NewVolumeMessage(v *Volume) VolumeMessage {
	missing := v.MissingValue
	msg := VolumeMessage{
		ID:            v.ID,
		Radar:         v.Radar,
		StartTime:     v.StartTime,
		BeamWidthHDeg: v.BeamWidthHDeg,
		BeamWidthVDeg: v.BeamWidthVDeg,
		StartRangeKm:  v.StartRangeKm,
		GateSpacingKm: v.GateSpacingKm,
		MissingValue:  &missing,
		Fields:        v.Fields,
		Sweeps:        make([]SweepMessage, len(v.Sweeps)),
	}
	for i, s := range v.Sweeps {
		msg.Sweeps[i].FixedAngleDeg = s.FixedAngleDeg
	}
	for _, r := range v.Rays {
		if r.SweepIndex < 0 || r.SweepIndex >= len(msg.Sweeps) {
			continue
		}
		rm := RayMessage{ElevationDeg: r.ElevationDeg, AzimuthDeg: r.AzimuthDeg, Data: r.Data}
		if r.AzimuthForLimitsDeg != r.AzimuthDeg {
			az := r.AzimuthForLimitsDeg
			rm.AzimuthForLimitsDeg = &az
		}
		msg.Sweeps[r.SweepIndex].Rays = append(msg.Sweeps[r.SweepIndex].Rays, rm)
	}
	return msg
}

// MarshalVolume serializes a Volume as a source-topic message value.
func MarshalVolume(v *Volume) ([]byte, error) {
	data, err := json.Marshal(NewVolumeMessage(v))
	if err != nil {
		return nil, fmt.Errorf("marshal volume: %w", err)
	}
	return data, nil
}

// gridEnvelope is the JSON form of a Grid on the sink topic.
type gridEnvelope struct {
	PassID        string              `json:"pass_id"`
	VolumeID      string              `json:"volume_id"`
	RadarName     string              `json:"radar_name"`
	VolumeTime    time.Time           `json:"volume_time"`
	ProcessedAt   time.Time           `json:"processed_at"`
	NEl           int                 `json:"n_el"`
	NAz           int                 `json:"n_az"`
	NGates        int                 `json:"n_gates"`
	MinAzDeg      float64             `json:"min_az_deg"`
	DeltaAzDeg    float64             `json:"delta_az_deg"`
	StartRangeKm  float64             `json:"start_range_km"`
	GateSpacingKm float64             `json:"gate_spacing_km"`
	ElevationsDeg []float64           `json:"elevations_deg"`
	IsSector      bool                `json:"is_sector"`
	Projection    Projection          `json:"projection"`
	MissingValue  float32             `json:"missing_value"`
	Stats         GridStats           `json:"stats"`
	Fields        []gridFieldEnvelope `json:"fields"`
}

// gridFieldEnvelope carries one plane as little-endian float32 bytes.
// encoding/json writes []byte as base64.
type gridFieldEnvelope struct {
	FieldDescriptor
	Data []byte `json:"data"`
}

// EncodeGrid serializes a Grid into an OutputEvent keyed by volume ID.
func EncodeGrid(g *Grid) (OutputEvent, error) {
	env := gridEnvelope{
		PassID:        g.PassID,
		VolumeID:      g.VolumeID,
		RadarName:     g.RadarName,
		VolumeTime:    g.VolumeTime,
		ProcessedAt:   g.ProcessedAt,
		NEl:           g.NEl,
		NAz:           g.NAz,
		NGates:        g.NGates,
		MinAzDeg:      g.MinAzDeg,
		DeltaAzDeg:    g.DeltaAzDeg,
		StartRangeKm:  g.StartRangeKm,
		GateSpacingKm: g.GateSpacingKm,
		ElevationsDeg: g.ElevationsDeg,
		IsSector:      g.IsSector,
		Projection:    g.Projection,
		MissingValue:  g.MissingValue,
		Stats:         g.Stats,
		Fields:        make([]gridFieldEnvelope, len(g.Fields)),
	}
	for i, f := range g.Fields {
		env.Fields[i] = gridFieldEnvelope{FieldDescriptor: f.FieldDescriptor, Data: encodePlane(f.Data)}
	}

	value, err := json.Marshal(env)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("marshal grid: %w", err)
	}

	return OutputEvent{
		Key:   []byte(g.VolumeID),
		Value: value,
		Headers: map[string]string{
			"pass_id":      g.PassID,
			"volume_id":    g.VolumeID,
			"processed_at": g.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// DecodeGrid parses a sink-topic message value back into a Grid.
func DecodeGrid(data []byte) (*Grid, error) {
	var env gridEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}

	g := &Grid{
		PassID:        env.PassID,
		VolumeID:      env.VolumeID,
		RadarName:     env.RadarName,
		VolumeTime:    env.VolumeTime,
		ProcessedAt:   env.ProcessedAt,
		NEl:           env.NEl,
		NAz:           env.NAz,
		NGates:        env.NGates,
		MinAzDeg:      env.MinAzDeg,
		DeltaAzDeg:    env.DeltaAzDeg,
		StartRangeKm:  env.StartRangeKm,
		GateSpacingKm: env.GateSpacingKm,
		ElevationsDeg: env.ElevationsDeg,
		IsSector:      env.IsSector,
		Projection:    env.Projection,
		MissingValue:  env.MissingValue,
		Stats:         env.Stats,
		Fields:        make([]GridField, len(env.Fields)),
	}
	want := g.NEl * g.NAz * g.NGates
	for i, f := range env.Fields {
		plane, err := decodePlane(f.Data)
		if err != nil {
			return nil, fmt.Errorf("decode grid field %s: %w", f.Name, err)
		}
		if len(plane) != want {
			return nil, fmt.Errorf("decode grid field %s: got %d values, want %d", f.Name, len(plane), want)
		}
		g.Fields[i] = GridField{FieldDescriptor: f.FieldDescriptor, Data: plane}
	}
	return g, nil
}

func encodePlane(data []float32) []byte {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodePlane(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("plane length %d is not a multiple of 4", len(buf))
	}
	data := make([]float32, len(buf)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return data, nil
}

// generateVolumeID produces a deterministic ID from the volume's key fields
// so reprocessing the same raw volume yields the same grid key.
func generateVolumeID(radar string, start time.Time, nRays int) string {
	input := fmt.Sprintf("%s|%s|%d", radar, start.UTC().Format(time.RFC3339Nano), nRays)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if radar == "" {
		return short
	}
	return radar + "-" + short
}

func positiveOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
