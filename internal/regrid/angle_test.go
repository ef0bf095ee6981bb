package regrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAzIndex(t *testing.T) {
	idx := newAzIndex(0, 360+searchOverlapDeg, searchResAzDeg)
	assert.Equal(t, 3801, idx.n)

	tests := []struct {
		name string
		az   float64
		want int
	}{
		{"origin", 0, 0},
		{"rounds down", 12.34, 123},
		{"rounds up", 12.36, 124},
		{"seam", 360, 3600},
		{"just below seam", 359.96, 3600},
		{"end of overlap", 380.04, 3800},
		{"past overlap", 380.1, -1},
		{"negative", -0.1, -1},
		{"nan", math.NaN(), -1},
		{"huge", 1e300, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.toIndex(tt.az))
		})
	}

	assert.InDelta(t, 360.0, idx.toAngle(3600), 1e-9)
}

func TestAzIndexSector(t *testing.T) {
	idx := newAzIndex(290, 140, searchResAzDeg)
	assert.Equal(t, 1401, idx.n)
	assert.Equal(t, 100, idx.toIndex(300))
	assert.Equal(t, 750, idx.toIndex(365))
	assert.Equal(t, -1, idx.toIndex(5))
}

func TestWrapInto(t *testing.T) {
	tests := []struct {
		az, base, want float64
	}{
		{5, 10, 365},
		{9.99, 10, 369.99},
		{10, 10, 10},
		{-0.05, 10, 359.95},
		{370, 10, 10},
		{725, 0, 5},
		{295, 290, 295},
		{5, 290, 365},
		{-10, -5, 350},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, wrapInto(tt.az, tt.base), 1e-9, "wrapInto(%v, %v)", tt.az, tt.base)
	}
}

func TestWrapDelta(t *testing.T) {
	assert.InDelta(t, 1.0, wrapDelta(1), 1e-12)
	assert.InDelta(t, -2.0, wrapDelta(358), 1e-12)
	assert.InDelta(t, 2.0, wrapDelta(-358), 1e-12)
	assert.InDelta(t, 180.0, wrapDelta(180), 1e-12)
	assert.InDelta(t, 180.0, wrapDelta(-180), 1e-12)
	assert.InDelta(t, 0.2, angularDistance(359.9, 0.1), 1e-9)
}
