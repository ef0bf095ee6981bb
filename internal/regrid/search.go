package regrid

import "github.com/couchcryptid/storm-radar-regrid/internal/domain"

// interpRay is a source ray prepared for one pass.
type interpRay struct {
	src         *domain.Ray
	elDeg       float64
	azDeg       float64 // conditioned
	azLimitsDeg float64
	sweep       int
}

// SearchPoint is one cell of the search matrix: the nearest ray on one side of a column.
type SearchPoint struct {
	ray      *interpRay
	RayEl    float64
	RayAz    float64
	InterpAz float64
}

func (p *SearchPoint) valid() bool {
	return p.ray != nil
}

// searchMatrix holds the left and right nearest-ray tables, one row per
// elevation with stride nAz.
type searchMatrix struct {
	nEl, nAz int
	left     []SearchPoint
	right    []SearchPoint
}

func newSearchMatrix(nEl, nAz int) *searchMatrix {
	return &searchMatrix{
		nEl:   nEl,
		nAz:   nAz,
		left:  make([]SearchPoint, nEl*nAz),
		right: make([]SearchPoint, nEl*nAz),
	}
}

func (m *searchMatrix) at(iel, iaz int) int {
	return iel*m.nAz + iaz
}

func (m *searchMatrix) reset() {
	clear(m.left)
	clear(m.right)
}

// place writes ray into column iaz of its sweep row in both tables.
func (m *searchMatrix) place(r *interpRay, iaz int, az float64) {
	p := SearchPoint{ray: r, RayEl: r.elDeg, RayAz: az, InterpAz: az}
	k := m.at(r.sweep, iaz)
	m.left[k] = p
	m.right[k] = p
}

// duplicateSeam copies columns [0, overlap] to [seam, seam+overlap],
// adding 360 to the cached ray azimuths.
func (m *searchMatrix) duplicateSeam(seam, overlap int) {
	for iel := 0; iel < m.nEl; iel++ {
		for c := 0; c <= overlap; c++ {
			d := seam + c
			if d >= m.nAz {
				break
			}
			for _, tbl := range [2][]SearchPoint{m.left, m.right} {
				p := tbl[m.at(iel, c)]
				if p.valid() {
					p.RayAz += 360
					p.InterpAz = p.RayAz
				}
				tbl[m.at(iel, d)] = p
			}
		}
	}
}

// fillLeft propagates each ray rightwards until the next ray.
func (m *searchMatrix) fillLeft() {
	for iel := 0; iel < m.nEl; iel++ {
		row := m.left[iel*m.nAz : (iel+1)*m.nAz]
		for c := 1; c < len(row); c++ {
			if !row[c].valid() && row[c-1].valid() {
				row[c] = row[c-1]
			}
		}
	}
}

// fillRight propagates each ray leftwards until the previous ray.
func (m *searchMatrix) fillRight() {
	for iel := 0; iel < m.nEl; iel++ {
		row := m.right[iel*m.nAz : (iel+1)*m.nAz]
		for c := len(row) - 2; c >= 0; c-- {
			if !row[c].valid() && row[c+1].valid() {
				row[c] = row[c+1]
			}
		}
	}
}

// buildSearchMatrix prepares rays and fills the matrix for one pass.
// It returns the number of rays placed and skipped.
func buildSearchMatrix(m *searchMatrix, rays []interpRay, g *Geometry, idx azIndex) (used, skipped int) {
	m.reset()

	seam := idx.toIndex(360)
	for i := range rays {
		r := &rays[i]
		az := r.azDeg
		if !g.IsSector {
			az = wrapInto(az, 0)
		}
		col := idx.toIndex(az)
		if !g.IsSector && col >= seam {
			col -= seam
			az -= 360
		}
		if col < 0 {
			skipped++
			continue
		}
		m.place(r, col, az)
		used++
	}

	if !g.IsSector {
		m.duplicateSeam(seam, idx.toIndex(searchOverlapDeg))
	}
	m.fillLeft()
	m.fillRight()
	return used, skipped
}
