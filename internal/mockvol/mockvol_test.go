package mockvol

import (
	"testing"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRamp(t *testing.T) {
	vol := Ramp().Build()

	require.Len(t, vol.Sweeps, 3)
	require.Len(t, vol.Rays, 3*36)
	assert.Equal(t, BaseTime, vol.StartTime)
	assert.Equal(t, domain.MissingFl32, vol.MissingValue)

	r := vol.Rays[36+7]
	assert.Equal(t, 1, r.SweepIndex)
	assert.InDelta(t, 70.0, r.AzimuthDeg, 1e-9)
	assert.Equal(t, r.AzimuthDeg, r.AzimuthForLimitsDeg)
	require.Len(t, r.Data, 1)
	require.Len(t, r.Data[0], 10)
	assert.InDelta(t, 0.7, float64(r.Data[0][9]), 1e-6)
}

func TestBuildSectorWrapsAzimuth(t *testing.T) {
	vol := Sector().Build()
	for _, r := range vol.Rays {
		assert.GreaterOrEqual(t, r.AzimuthDeg, 0.0)
		assert.Less(t, r.AzimuthDeg, 360.0)
	}
	assert.InDelta(t, 0.0, vol.Rays[60].AzimuthDeg, 1e-9)
	assert.InDelta(t, 60.0, vol.Rays[120].AzimuthDeg, 1e-9)
	assert.Equal(t, domain.MissingFl32, vol.Rays[0].Data[0][0])
}

func TestBuildIsDeterministic(t *testing.T) {
	for _, sc := range All() {
		if diff := cmp.Diff(sc.Build(), sc.Build()); diff != "" {
			t.Errorf("%s not deterministic:\n%s", sc.ID, diff)
		}
	}
}

func TestBuildSurvivesWireRoundTrip(t *testing.T) {
	vol := Dense().Build()
	data, err := domain.MarshalVolume(vol)
	require.NoError(t, err)

	parsed, err := domain.ParseVolume(domain.RawEvent{Value: data})
	require.NoError(t, err)
	if diff := cmp.Diff(vol, parsed); diff != "" {
		t.Errorf("volume changed on the wire (-want +got):\n%s", diff)
	}
}
