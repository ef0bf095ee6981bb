package regrid

import (
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// fullCircleCoverageDeg is the sweep coverage at which a sweep counts as a full circle.
	fullCircleCoverageDeg = 345.0

	// scanStepBinDeg is the bin width used when taking the modal scan step.
	scanStepBinDeg = 0.05

	// maxScanDeltaAzDeg bounds the scan step. Coarser scans leave the seam
	// overlap without a right-hand neighbor.
	maxScanDeltaAzDeg = searchOverlapHalfDeg
)

// Geometry is the output grid layout derived from a volume.
type Geometry struct {
	IsSector       bool
	SpansNorth     bool
	SectorStartDeg float64
	SectorEndDeg   float64 // exceeds 360 when the sector spans north
	ScanDeltaAzDeg float64

	MinAzDeg   float64
	DeltaAzDeg float64
	NAz        int

	NEl           int
	ElevationsDeg []float64

	NGates        int
	StartRangeKm  float64
	GateSpacingKm float64

	azBase float64
}

// ConditionAz maps az into the continuous interval the search matrix covers.
func (g *Geometry) ConditionAz(az float64) float64 {
	return wrapInto(az, g.azBase)
}

// AzimuthDeg returns the nominal azimuth of output column iaz.
func (g *Geometry) AzimuthDeg(iaz int) float64 {
	return g.MinAzDeg + float64(iaz)*g.DeltaAzDeg
}

// Cells is the number of (elevation, azimuth) work units.
func (g *Geometry) Cells() int {
	return g.NEl * g.NAz
}

func (g *Geometry) searchIndex() azIndex {
	if g.IsSector {
		width := g.SectorEndDeg - g.SectorStartDeg
		return newAzIndex(g.SectorStartDeg-searchOverlapHalfDeg, width+searchOverlapDeg, searchResAzDeg)
	}
	return newAzIndex(0, 360+searchOverlapDeg, searchResAzDeg)
}

// ComputeGeometry derives the output grid from a volume.
func ComputeGeometry(vol *domain.Volume) (*Geometry, error) {
	if len(vol.Sweeps) == 0 {
		return nil, ErrNoSweeps
	}
	if len(vol.Rays) < 2 {
		return nil, fmt.Errorf("%d rays: %w", len(vol.Rays), ErrTooFewRays)
	}
	for i := range vol.Rays {
		if idx := vol.Rays[i].SweepIndex; idx < 0 || idx >= len(vol.Sweeps) {
			return nil, fmt.Errorf("ray %d sweep index %d of %d: %w", i, idx, len(vol.Sweeps), ErrInconsistentSweeps)
		}
	}

	scanDelta, err := scanDeltaAz(vol.Rays)
	if err != nil {
		return nil, err
	}

	g := &Geometry{
		ScanDeltaAzDeg: scanDelta,
		NEl:            len(vol.Sweeps),
		ElevationsDeg:  make([]float64, len(vol.Sweeps)),
		StartRangeKm:   vol.StartRangeKm,
		GateSpacingKm:  vol.GateSpacingKm,
	}
	for i, s := range vol.Sweeps {
		g.ElevationsDeg[i] = s.FixedAngleDeg
	}
	for i := range vol.Rays {
		g.NGates = max(g.NGates, vol.Rays[i].NGates())
	}
	if g.NGates == 0 {
		return nil, ErrNoGates
	}

	if isFullCircle(vol) {
		g.NAz = max(1, int(math.Round(360/scanDelta)))
		g.DeltaAzDeg = 360 / float64(g.NAz)
		g.SectorStartDeg = 0
		g.SectorEndDeg = 360
		g.azBase = searchOverlapHalfDeg
	} else {
		g.IsSector = true
		g.SectorStartDeg, g.SectorEndDeg, g.SpansNorth = sectorBounds(vol.Rays)
		width := g.SectorEndDeg - g.SectorStartDeg
		nSteps := int(math.Round(width / scanDelta))
		if nSteps < 1 {
			return nil, fmt.Errorf("sector width %.2f deg with step %.2f deg: %w", width, scanDelta, ErrAzimuthStep)
		}
		g.DeltaAzDeg = width / float64(nSteps)
		g.NAz = nSteps + 1
		g.azBase = g.SectorStartDeg - min(searchOverlapHalfDeg, (360-width)/2)
	}
	g.MinAzDeg = g.SectorStartDeg
	g.MinAzDeg += centeringOffset(g, vol.Rays)

	return g, nil
}

// scanDeltaAz returns the modal azimuth step between consecutive rays of the same sweep.
func scanDeltaAz(rays []domain.Ray) (float64, error) {
	deltas := make([]float64, 0, len(rays))
	for i := 1; i < len(rays); i++ {
		if rays[i].SweepIndex != rays[i-1].SweepIndex {
			continue
		}
		bin := math.Round(math.Abs(wrapDelta(rays[i].AzimuthDeg-rays[i-1].AzimuthDeg)) / scanStepBinDeg)
		if bin == 0 {
			continue
		}
		deltas = append(deltas, bin*scanStepBinDeg)
	}
	if len(deltas) == 0 {
		return 0, fmt.Errorf("no azimuth steps between rays: %w", ErrAzimuthStep)
	}

	slices.Sort(deltas)
	_, count := stat.Mode(deltas, nil)
	mode := smallestWithCount(deltas, count)
	if mode > maxScanDeltaAzDeg+scanStepBinDeg/2 {
		return 0, fmt.Errorf("scan step %.2f deg exceeds %.1f deg: %w", mode, maxScanDeltaAzDeg, ErrAzimuthStep)
	}
	return mode, nil
}

// smallestWithCount returns the first value in sorted x that occurs count times.
func smallestWithCount(sorted []float64, count float64) float64 {
	run := 0.0
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			run++
		} else {
			run = 1
		}
		if run == count {
			return v
		}
	}
	return sorted[0]
}

// isFullCircle reports whether at least half of the non-empty sweeps cover a full turn.
func isFullCircle(vol *domain.Volume) bool {
	nonEmpty, full := 0, 0
	for i := range vol.Sweeps {
		rays := vol.SweepRays(i)
		if len(rays) == 0 {
			continue
		}
		nonEmpty++
		if sweepCoverage(rays) >= fullCircleCoverageDeg {
			full++
		}
	}
	return full > 0 && 2*full >= nonEmpty
}

// sweepCoverage sums the absolute azimuth steps and adds one mean step for the last ray.
func sweepCoverage(rays []domain.Ray) float64 {
	if len(rays) < 2 {
		return 0
	}
	steps := make([]float64, len(rays)-1)
	for i := 1; i < len(rays); i++ {
		steps[i-1] = math.Abs(wrapDelta(rays[i].AzimuthDeg - rays[i-1].AzimuthDeg))
	}
	sum := floats.Sum(steps)
	return sum + sum/float64(len(steps))
}

// sectorBounds finds the sector covered by rays as the complement of the
// largest azimuth gap. end exceeds 360 when the sector crosses north.
func sectorBounds(rays []domain.Ray) (start, end float64, spansNorth bool) {
	azs := make([]float64, len(rays))
	for i := range rays {
		azs[i] = wrapInto(rays[i].AzimuthDeg, 0)
	}
	slices.Sort(azs)

	last := len(azs) - 1
	maxGap := azs[0] + 360 - azs[last]
	gapAt := last
	for i := 0; i < last; i++ {
		if gap := azs[i+1] - azs[i]; gap > maxGap {
			maxGap = gap
			gapAt = i
		}
	}
	if gapAt == last {
		return azs[0], azs[last], false
	}
	return azs[gapAt+1], azs[gapAt] + 360, true
}

// centeringOffset is the mean offset of ray azimuths from their nearest grid azimuth.
func centeringOffset(g *Geometry, rays []domain.Ray) float64 {
	if len(rays) == 0 || g.DeltaAzDeg <= 0 {
		return 0
	}
	offsets := make([]float64, len(rays))
	for i := range rays {
		az := g.ConditionAz(rays[i].AzimuthDeg)
		k := math.Round((az - g.MinAzDeg) / g.DeltaAzDeg)
		offsets[i] = az - (g.MinAzDeg + k*g.DeltaAzDeg)
	}
	return stat.Mean(offsets, nil)
}
