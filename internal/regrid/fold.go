package regrid

import "math"

// foldAngle maps a folded value onto the circle, lower -> 0 and lower+rng -> 2π.
func foldAngle(v, lower, rng float64) float64 {
	return 2 * math.Pi * (v - lower) / rng
}

// foldValue maps an angle back into [lower, lower+rng).
func foldValue(angle, lower, rng float64) float64 {
	frac := angle / (2 * math.Pi)
	frac -= math.Floor(frac)
	v := lower + frac*rng
	if v >= lower+rng {
		v = lower
	}
	return v
}

// circularMean accumulates weighted unit vectors for folded fields.
type circularMean struct {
	lower, rng float64
	x, y       float64
	n          int
}

func (c *circularMean) add(v, w float64) {
	theta := foldAngle(v, c.lower, c.rng)
	c.x += w * math.Cos(theta)
	c.y += w * math.Sin(theta)
	c.n++
}

func (c *circularMean) value() (float64, bool) {
	if c.n == 0 {
		return 0, false
	}
	return foldValue(math.Atan2(c.y, c.x), c.lower, c.rng), true
}
