package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/couchcryptid/storm-radar-regrid/internal/mockvol"
	"github.com/couchcryptid/storm-radar-regrid/internal/pipeline"
	"github.com/couchcryptid/storm-radar-regrid/internal/regrid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawEventFromVolume(t *testing.T, vol *domain.Volume) domain.RawEvent {
	t.Helper()
	payload, err := domain.MarshalVolume(vol)
	require.NoError(t, err)

	return domain.RawEvent{
		Key:   []byte(vol.ID),
		Value: payload,
		Topic: "raw-radar-volumes",
	}
}

func TestGridTransformer_WithMockVolumes(t *testing.T) {
	processedAt := time.Date(2024, time.April, 26, 15, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	opts := regrid.DefaultOptions()
	opts.UseMultipleThreads = true
	opts.NThreads = 4
	r := regrid.New(opts, discardLogger())
	t.Cleanup(r.Close)

	metrics := newTestMetrics()
	transformer := pipeline.NewTransformer(r, discardLogger(), metrics)

	cases := []struct {
		scenario mockvol.Scenario
		isSector bool
		nAz      int
	}{
		{scenario: mockvol.Ramp(), nAz: 36},
		{scenario: mockvol.Sector(), isSector: true, nAz: 121},
		{scenario: mockvol.Dense(), nAz: 360},
	}

	for _, tc := range cases {
		t.Run(tc.scenario.ID, func(t *testing.T) {
			vol := tc.scenario.Build()

			grid, err := transformer.Transform(context.Background(), rawEventFromVolume(t, vol))
			require.NoError(t, err)

			assert.Equal(t, vol.ID, grid.VolumeID)
			assert.Equal(t, vol.Radar.Name, grid.RadarName)
			assert.True(t, vol.StartTime.Equal(grid.VolumeTime))
			assert.Equal(t, processedAt, grid.ProcessedAt)
			assert.NotEmpty(t, grid.PassID)
			assert.Equal(t, tc.isSector, grid.IsSector)
			assert.Equal(t, len(tc.scenario.FixedAnglesDeg), grid.NEl)
			assert.Equal(t, tc.nAz, grid.NAz)
			assert.Equal(t, tc.scenario.NGates, grid.NGates)
			assert.Equal(t, tc.scenario.FixedAnglesDeg, grid.ElevationsDeg)
			require.Len(t, grid.Fields, len(tc.scenario.Fields))
			for _, f := range grid.Fields {
				assert.Len(t, f.Data, grid.NEl*grid.NAz*grid.NGates, "field %s", f.Name)
			}
			assert.Equal(t, grid.NEl*grid.NAz, grid.Stats.Cells)
			assert.Positive(t, grid.Stats.CellsWithData)
			assert.Equal(t, len(vol.Rays), grid.Stats.RaysUsed+grid.Stats.RaysSkipped)
		})
	}

	assert.Positive(t, testutil.ToFloat64(metrics.GridCells.WithLabelValues("data")))
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues("parse")), 0)
}

func TestGridTransformer_ParseError(t *testing.T) {
	r := regrid.New(regrid.DefaultOptions(), discardLogger())
	t.Cleanup(r.Close)

	metrics := newTestMetrics()
	transformer := pipeline.NewTransformer(r, discardLogger(), metrics)

	_, err := transformer.Transform(context.Background(), domain.RawEvent{Value: []byte("not-json{{{")})
	require.Error(t, err)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues("parse")), 0)
}

func TestGridTransformer_RegridError(t *testing.T) {
	r := regrid.New(regrid.DefaultOptions(), discardLogger())
	t.Cleanup(r.Close)

	metrics := newTestMetrics()
	transformer := pipeline.NewTransformer(r, discardLogger(), metrics)

	// a single ray cannot define a scan step
	s := mockvol.Ramp()
	s.FixedAnglesDeg = []float64{0.5}
	s.NRays = 1

	_, err := transformer.Transform(context.Background(), rawEventFromVolume(t, s.Build()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, regrid.ErrTooFewRays))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues("regrid")), 0)
}
