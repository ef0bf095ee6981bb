package regrid

import (
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/stretchr/testify/require"
)

// testRay is one ray with a single gate per field.
type testRay struct {
	az     float64
	values []float32
}

func testVolume(fields []domain.FieldDescriptor, sweeps ...[]testRay) *domain.Volume {
	vol := &domain.Volume{
		ID:            "test-vol",
		Radar:         domain.Radar{Name: "KTST", LatDeg: 35.0, LonDeg: -97.0},
		BeamWidthHDeg: 1.0,
		BeamWidthVDeg: 1.0,
		GateSpacingKm: 0.25,
		MissingValue:  domain.MissingFl32,
		Fields:        fields,
	}
	for isweep, rays := range sweeps {
		el := 0.5 + float64(isweep)
		vol.Sweeps = append(vol.Sweeps, domain.Sweep{FixedAngleDeg: el})
		for _, r := range rays {
			data := make([][]float32, len(r.values))
			for i, v := range r.values {
				data[i] = []float32{v}
			}
			vol.Rays = append(vol.Rays, domain.Ray{
				ElevationDeg:        el,
				AzimuthDeg:          r.az,
				AzimuthForLimitsDeg: r.az,
				SweepIndex:          isweep,
				Data:                data,
			})
		}
	}
	return vol
}

// evenRays returns n rays starting at start, step apart, each carrying value.
func evenRays(start, step float64, n int, value float32) []testRay {
	rays := make([]testRay, n)
	for i := range rays {
		rays[i] = testRay{az: start + float64(i)*step, values: []float32{value}}
	}
	return rays
}

func newTestPass(t *testing.T, vol *domain.Volume, opts Options) *pass {
	t.Helper()
	g, err := ComputeGeometry(vol)
	require.NoError(t, err)
	return newPass(vol, g, opts)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var linearField = []domain.FieldDescriptor{{Name: "DBZ"}}
