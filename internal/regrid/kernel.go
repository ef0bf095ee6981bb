package regrid

import (
	"math"
	"slices"
)

// weightEpsilon keeps inverse-distance weights finite when a ray sits on the cell azimuth.
const weightEpsilon = 1e-6

type fieldPolicy int

const (
	policyLinear fieldPolicy = iota
	policyNearest
	policyFolded
)

func (fp fieldPolicy) String() string {
	switch fp {
	case policyNearest:
		return "nearest"
	case policyFolded:
		return "folded"
	default:
		return "linear"
	}
}

// interpCell fills every field's gate run for one (elevation, azimuth) cell.
// It only writes to that cell's slots. The cell counts as having data when at
// least one output sample is not missing.
func (p *pass) interpCell(iel, iaz int) {
	left, right, wl, wr, ok := p.neighbors(iel, p.geom.AzimuthDeg(iaz))
	if !ok {
		return
	}

	nGates := p.geom.NGates
	cell := iel*p.geom.NAz + iaz
	base := cell * nGates
	for ifield := range p.fields {
		out := p.planes[ifield][base : base+nGates]
		switch p.policies[ifield] {
		case policyNearest:
			for ig := range out {
				out[ig] = p.nearest(ifield, ig, &left, &right, wl, wr)
			}
		case policyFolded:
			f := &p.fields[ifield]
			for ig := range out {
				out[ig] = p.folded(ifield, ig, &left, &right, wl, wr, f.FoldLimitLower, f.FoldRange)
			}
		default:
			for ig := range out {
				out[ig] = p.linear(ifield, ig, &left, &right, wl, wr)
			}
		}
		if !p.hasData[cell] && slices.ContainsFunc(out, func(v float32) bool { return v != p.missing }) {
			p.hasData[cell] = true
		}
	}
}

// neighbors returns the bounding rays of azimuth az in sweep row iel and their
// weights. ok is false when the cell has no usable ray.
func (p *pass) neighbors(iel int, az float64) (left, right SearchPoint, wl, wr float64, ok bool) {
	az = p.geom.ConditionAz(az)
	col := p.idx.toIndex(az)
	if col < 0 {
		return left, right, 0, 0, false
	}

	m := p.matrix
	left = m.left[m.at(iel, col)]
	right = m.right[m.at(iel, col)]
	if left.valid() && left.RayAz > az && col > 0 {
		left = m.left[m.at(iel, col-1)]
	}
	if right.valid() && right.RayAz < az && col+1 < m.nAz {
		right = m.right[m.at(iel, col+1)]
	}
	left.InterpAz = az
	right.InterpAz = az

	wl, wr, ok = p.weights(&left, &right)
	return left, right, wl, wr, ok
}

// weights returns normalized left/right weights. ok is false when the cell
// has no usable ray.
func (p *pass) weights(left, right *SearchPoint) (wl, wr float64, ok bool) {
	switch {
	case left.valid() && right.valid():
		wl = 1 / math.Max(math.Abs(left.InterpAz-left.RayAz), weightEpsilon)
		wr = 1 / math.Max(math.Abs(right.InterpAz-right.RayAz), weightEpsilon)
		sum := wl + wr
		if sum == 0 {
			sum = 1
		}
		return wl / sum, wr / sum, true
	case left.valid():
		return 1, 0, p.withinBeam(left)
	case right.valid():
		return 0, 1, p.withinBeam(right)
	}
	return 0, 0, false
}

// withinBeam reports whether a lone ray is close enough to extend data to the cell.
func (p *pass) withinBeam(sp *SearchPoint) bool {
	return angularDistance(sp.InterpAz, sp.ray.azLimitsDeg) <= p.beamLimitDeg
}

func (p *pass) sample(sp *SearchPoint, ifield, igate int) (float64, bool) {
	if !sp.valid() {
		return 0, false
	}
	data := sp.ray.src.Data
	if ifield >= len(data) || igate >= len(data[ifield]) {
		return 0, false
	}
	v := data[ifield][igate]
	if v == p.srcMissing || v != v {
		return 0, false
	}
	return float64(v), true
}

// nearest copies the sample from the heavier valid side. Ties go left.
func (p *pass) nearest(ifield, igate int, left, right *SearchPoint, wl, wr float64) float32 {
	vl, okl := p.sample(left, ifield, igate)
	vr, okr := p.sample(right, ifield, igate)
	switch {
	case okl && okr:
		if wr > wl {
			return float32(vr)
		}
		return float32(vl)
	case okl:
		return float32(vl)
	case okr:
		return float32(vr)
	}
	return p.missing
}

func (p *pass) linear(ifield, igate int, left, right *SearchPoint, wl, wr float64) float32 {
	var sum, wsum float64
	if v, ok := p.sample(left, ifield, igate); ok {
		sum += wl * v
		wsum += wl
	}
	if v, ok := p.sample(right, ifield, igate); ok {
		sum += wr * v
		wsum += wr
	}
	if wsum <= 0 {
		return p.missing
	}
	return float32(sum / wsum)
}

func (p *pass) folded(ifield, igate int, left, right *SearchPoint, wl, wr, lower, rng float64) float32 {
	acc := circularMean{lower: lower, rng: rng}
	if v, ok := p.sample(left, ifield, igate); ok {
		acc.add(v, wl)
	}
	if v, ok := p.sample(right, ifield, igate); ok {
		acc.add(v, wr)
	}
	v, ok := acc.value()
	if !ok {
		return p.missing
	}
	if out := float32(v); out < float32(lower+rng) {
		return out
	}
	return float32(lower)
}
