package regrid

import "math"

const (
	// searchResAzDeg is the column width of the search matrix.
	searchResAzDeg = 0.1

	// searchOverlapDeg is the span duplicated past 360° in full-circle mode.
	searchOverlapDeg = 20.0

	searchOverlapHalfDeg = searchOverlapDeg / 2
)

// azIndex maps azimuths onto columns of the search matrix.
type azIndex struct {
	minAz float64
	res   float64
	n     int
}

func newAzIndex(minAz, spanDeg, res float64) azIndex {
	return azIndex{minAz: minAz, res: res, n: int(math.Round(spanDeg/res)) + 1}
}

// toIndex returns the nearest column for az, or -1 when it falls outside the table.
func (x azIndex) toIndex(az float64) int {
	f := math.Round((az - x.minAz) / x.res)
	if !(f >= 0 && f < float64(x.n)) {
		return -1
	}
	return int(f)
}

func (x azIndex) toAngle(i int) float64 {
	return x.minAz + float64(i)*x.res
}

// wrapInto maps az into [base, base+360).
func wrapInto(az, base float64) float64 {
	a := math.Mod(az-base, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return base + a
}

// wrapDelta maps an azimuth difference into (-180, 180].
func wrapDelta(d float64) float64 {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

// angularDistance is the unsigned separation of two azimuths on the circle.
func angularDistance(a, b float64) float64 {
	return math.Abs(wrapDelta(a - b))
}
