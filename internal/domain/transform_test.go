package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVolumeJSON = `{
	"id": "KTLX-20240426-1510",
	"radar": {"name": "KTLX", "lat_deg": 35.333, "lon_deg": -97.278, "alt_km": 0.384},
	"start_time": "2024-04-26T15:10:00Z",
	"beam_width_h_deg": 0.95,
	"start_range_km": 2.125,
	"gate_spacing_km": 0.25,
	"missing_value": -32768,
	"fields": [
		{"name": "DBZ", "units": "dBZ"},
		{"name": "VEL", "units": "m/s", "folds": true, "fold_limit_lower": -27.5, "fold_range": 55}
	],
	"sweeps": [
		{"fixed_angle_deg": 0.5, "rays": [
			{"el": 0.48, "az": 0.2, "data": [[10, 11], [1.5, -2]]},
			{"el": 0.49, "az": 1.1, "az_for_limits": 1.0, "data": [[12, 13], null]}
		]},
		{"fixed_angle_deg": 1.5, "rays": [
			{"el": 1.51, "az": 0.7, "data": [[20, 21, 22]]}
		]}
	]
}`

func TestParseVolume(t *testing.T) {
	t.Run("nested sweeps flatten in order", func(t *testing.T) {
		vol, err := ParseVolume(RawEvent{Value: []byte(testVolumeJSON)})
		require.NoError(t, err)

		assert.Equal(t, "KTLX-20240426-1510", vol.ID)
		assert.Equal(t, "KTLX", vol.Radar.Name)
		assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), vol.StartTime)
		assert.InDelta(t, 0.95, vol.BeamWidthHDeg, 1e-9)
		assert.InDelta(t, DefaultBeamWidthDeg, vol.BeamWidthVDeg, 1e-9)
		assert.Equal(t, float32(-32768), vol.MissingValue)
		require.Len(t, vol.Fields, 2)
		assert.True(t, vol.Fields[1].FieldFolds)
		require.Len(t, vol.Sweeps, 2)
		assert.Equal(t, 1.5, vol.Sweeps[1].FixedAngleDeg)

		require.Len(t, vol.Rays, 3)
		assert.Equal(t, []int{0, 0, 1}, []int{vol.Rays[0].SweepIndex, vol.Rays[1].SweepIndex, vol.Rays[2].SweepIndex})
		assert.Equal(t, 0.2, vol.Rays[0].AzimuthForLimitsDeg, "defaults to measured azimuth")
		assert.Equal(t, 1.0, vol.Rays[1].AzimuthForLimitsDeg)
		assert.Nil(t, vol.Rays[1].Data[1])
		assert.Equal(t, 3, vol.Rays[2].NGates())
	})

	t.Run("missing value defaults to sentinel", func(t *testing.T) {
		vol, err := ParseVolume(RawEvent{Value: []byte(`{"radar":{"name":"KFWS"},"fields":[{"name":"DBZ"}],"sweeps":[]}`)})
		require.NoError(t, err)
		assert.Equal(t, MissingFl32, vol.MissingValue)
	})

	t.Run("start time falls back to message timestamp", func(t *testing.T) {
		ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		vol, err := ParseVolume(RawEvent{Value: []byte(`{"radar":{"name":"KFWS"},"fields":[],"sweeps":[]}`), Timestamp: ts})
		require.NoError(t, err)
		assert.Equal(t, ts, vol.StartTime)
	})

	t.Run("generated id is deterministic", func(t *testing.T) {
		data := []byte(`{"radar":{"name":"KFWS"},"start_time":"2024-04-26T15:10:00Z","fields":[{"name":"DBZ"}],"sweeps":[{"fixed_angle_deg":0.5,"rays":[{"el":0.5,"az":1,"data":[[1]]}]}]}`)
		a, err := ParseVolume(RawEvent{Value: data})
		require.NoError(t, err)
		b, err := ParseVolume(RawEvent{Value: data})
		require.NoError(t, err)
		assert.Equal(t, a.ID, b.ID)
		assert.True(t, strings.HasPrefix(a.ID, "KFWS-"))
	})

	t.Run("more data arrays than fields", func(t *testing.T) {
		data := []byte(`{"radar":{"name":"KFWS"},"fields":[{"name":"DBZ"}],"sweeps":[{"fixed_angle_deg":0.5,"rays":[{"el":0.5,"az":1,"data":[[1],[2]]}]}]}`)
		_, err := ParseVolume(RawEvent{Value: data})
		require.ErrorIs(t, err, ErrInvalidVolume)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseVolume(RawEvent{Value: []byte(`{bad`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse volume")
	})
}

func TestNewVolumeMessageRoundTrip(t *testing.T) {
	vol, err := ParseVolume(RawEvent{Value: []byte(testVolumeJSON)})
	require.NoError(t, err)

	data, err := MarshalVolume(vol)
	require.NoError(t, err)
	again, err := ParseVolume(RawEvent{Value: data})
	require.NoError(t, err)

	if diff := cmp.Diff(vol, again); diff != "" {
		t.Errorf("volume mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeGrid(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 15, 12, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	g := &Grid{
		PassID:        "pass-1",
		VolumeID:      "KTLX-1",
		RadarName:     "KTLX",
		ProcessedAt:   Now(),
		NEl:           1,
		NAz:           2,
		NGates:        2,
		DeltaAzDeg:    180,
		ElevationsDeg: []float64{0.5},
		MissingValue:  MissingFl32,
		Fields: []GridField{
			{FieldDescriptor: FieldDescriptor{Name: "DBZ"}, Data: []float32{1.5, MissingFl32, -3.25, 40}},
		},
		Stats: GridStats{Cells: 2, CellsWithData: 2},
	}

	out, err := EncodeGrid(g)
	require.NoError(t, err)
	assert.Equal(t, []byte("KTLX-1"), out.Key)
	assert.Equal(t, "pass-1", out.Headers["pass_id"])
	assert.Equal(t, "2024-04-26T15:12:00Z", out.Headers["processed_at"])

	var raw map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &raw))
	assert.Equal(t, "KTLX-1", raw["volume_id"])

	decoded, err := DecodeGrid(out.Value)
	require.NoError(t, err)
	if diff := cmp.Diff(g, decoded); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeGridRejectsShortPlane(t *testing.T) {
	g := &Grid{NEl: 1, NAz: 2, NGates: 2, Fields: []GridField{{FieldDescriptor: FieldDescriptor{Name: "DBZ"}, Data: []float32{1, 2}}}}
	out, err := EncodeGrid(g)
	require.NoError(t, err)

	_, err = DecodeGrid(out.Value)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 4")
}

func TestGridIndex(t *testing.T) {
	g := &Grid{NEl: 2, NAz: 3, NGates: 4, MinAzDeg: 0.5, DeltaAzDeg: 120}
	assert.Equal(t, 0, g.Index(0, 0, 0))
	assert.Equal(t, 3, g.Index(0, 0, 3))
	assert.Equal(t, 4, g.Index(0, 1, 0))
	assert.Equal(t, 12, g.Index(1, 0, 0))
	assert.Equal(t, 23, g.Index(1, 2, 3))
	assert.InDelta(t, 240.5, g.AzimuthDeg(2), 1e-9)
}

func TestSweepRays(t *testing.T) {
	vol := &Volume{Rays: []Ray{{SweepIndex: 0}, {SweepIndex: 0}, {SweepIndex: 2}}}
	assert.Len(t, vol.SweepRays(0), 2)
	assert.Nil(t, vol.SweepRays(1))
	assert.Len(t, vol.SweepRays(2), 1)
}
