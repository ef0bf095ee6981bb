// Package regrid interpolates raw radar rays onto a regular
// elevation × azimuth × range polar grid.
//
// A pass derives the grid geometry from the volume, builds a two-sided
// nearest-ray search matrix over azimuth for every sweep, and then fills each
// (elevation, azimuth) cell from its left and right neighbors. Cells run
// either inline or on a fixed pool of worker goroutines. Both produce
// identical output.
package regrid

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/google/uuid"
)

// Options control a Regridder.
type Options struct {
	NThreads           int
	UseMultipleThreads bool
	UseNearestNeighbor bool

	// BeamWidthFraction scales the horizontal beam width to give the maximum
	// distance a lone ray may extend data past its edge.
	BeamWidthFraction float64

	CenterOnRadar bool
	OriginLatDeg  float64
	OriginLonDeg  float64
}

// DefaultOptions returns single-threaded linear interpolation centered on the radar.
func DefaultOptions() Options {
	return Options{
		NThreads:          1,
		BeamWidthFraction: 0.5,
		CenterOnRadar:     true,
	}
}

// Regridder runs regrid passes. It owns the worker pool when multiple threads
// are enabled; passes on one Regridder run one at a time.
type Regridder struct {
	opts   Options
	logger *slog.Logger
	pool   *workerPool
	mu     sync.Mutex
	closed bool
}

// New creates a Regridder. Call Close to stop its workers.
func New(opts Options, logger *slog.Logger) *Regridder {
	r := &Regridder{opts: opts, logger: logger}
	if opts.UseMultipleThreads {
		r.pool = newWorkerPool(opts.NThreads)
	}
	return r
}

// Threads returns the number of compute goroutines used per pass.
func (r *Regridder) Threads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.threads()
}

func (r *Regridder) threads() int {
	if r.pool == nil {
		return 1
	}
	return r.pool.size()
}

// Close stops the worker pool. It waits for an in-flight pass to finish;
// later calls to Regrid return ErrClosed.
func (r *Regridder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.close()
		r.pool = nil
	}
	r.closed = true
}

// pass is the state of one regrid run over a volume.
type pass struct {
	geom   *Geometry
	idx    azIndex
	matrix *searchMatrix
	rays   []interpRay

	fields   []domain.FieldDescriptor
	policies []fieldPolicy
	planes   [][]float32
	hasData  []bool

	srcMissing   float32
	missing      float32
	beamLimitDeg float64

	raysUsed, raysSkipped int
}

func newPass(vol *domain.Volume, g *Geometry, opts Options) *pass {
	p := &pass{
		geom:         g,
		idx:          g.searchIndex(),
		fields:       vol.Fields,
		policies:     make([]fieldPolicy, len(vol.Fields)),
		planes:       make([][]float32, len(vol.Fields)),
		hasData:      make([]bool, g.Cells()),
		srcMissing:   vol.MissingValue,
		missing:      domain.MissingFl32,
		beamLimitDeg: vol.BeamWidthHDeg * opts.BeamWidthFraction,
	}
	if vol.BeamWidthHDeg <= 0 {
		p.beamLimitDeg = domain.DefaultBeamWidthDeg * opts.BeamWidthFraction
	}

	for i, f := range vol.Fields {
		switch {
		case f.IsDiscrete || opts.UseNearestNeighbor:
			p.policies[i] = policyNearest
		case f.FieldFolds && f.FoldRange > 0:
			p.policies[i] = policyFolded
		default:
			p.policies[i] = policyLinear
		}
	}

	planeLen := g.Cells() * g.NGates
	arena := make([]float32, planeLen*len(vol.Fields))
	for i := range arena {
		arena[i] = p.missing
	}
	for i := range p.planes {
		p.planes[i] = arena[i*planeLen : (i+1)*planeLen : (i+1)*planeLen]
	}

	p.rays = make([]interpRay, len(vol.Rays))
	for i := range vol.Rays {
		src := &vol.Rays[i]
		p.rays[i] = interpRay{
			src:         src,
			elDeg:       src.ElevationDeg,
			azDeg:       g.ConditionAz(src.AzimuthDeg),
			azLimitsDeg: src.AzimuthForLimitsDeg,
			sweep:       src.SweepIndex,
		}
	}

	p.matrix = newSearchMatrix(g.NEl, p.idx.n)
	p.raysUsed, p.raysSkipped = buildSearchMatrix(p.matrix, p.rays, g, p.idx)
	return p
}

// Regrid interpolates vol onto its regular polar grid. It returns an error
// wrapping one of the package's fatal setup errors when the volume cannot be
// gridded, or ctx.Err() when the pass is cancelled.
func (r *Regridder) Regrid(ctx context.Context, vol *domain.Volume) (*domain.Grid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("regrid volume %s: %w", vol.ID, ErrClosed)
	}
	if len(vol.Fields) == 0 {
		return nil, fmt.Errorf("regrid volume %s: %w", vol.ID, ErrNoFields)
	}
	g, err := ComputeGeometry(vol)
	if err != nil {
		return nil, fmt.Errorf("regrid volume %s: %w", vol.ID, err)
	}

	p := newPass(vol, g, r.opts)
	r.logger.Debug("regrid pass",
		"volume_id", vol.ID,
		"n_el", g.NEl,
		"n_az", g.NAz,
		"n_gates", g.NGates,
		"min_az", g.MinAzDeg,
		"delta_az", g.DeltaAzDeg,
		"is_sector", g.IsSector,
		"spans_north", g.SpansNorth,
		"threads", r.threads(),
		"policies", p.policies,
		"rays_skipped", p.raysSkipped,
	)

	if err := r.run(ctx, p); err != nil {
		return nil, err
	}
	return r.assemble(vol, p), nil
}

// run visits every cell elevation-outer, azimuth-inner.
func (r *Regridder) run(ctx context.Context, p *pass) error {
	g := p.geom
	if r.pool == nil {
		for iel := 0; iel < g.NEl; iel++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for iaz := 0; iaz < g.NAz; iaz++ {
				p.interpCell(iel, iaz)
			}
		}
		return nil
	}

	for iel := 0; iel < g.NEl; iel++ {
		for iaz := 0; iaz < g.NAz; iaz++ {
			if err := ctx.Err(); err != nil {
				r.pool.drain()
				return err
			}
			r.pool.dispatch(workUnit{p: p, iel: iel, iaz: iaz})
		}
	}
	r.pool.drain()
	return nil
}

func (r *Regridder) assemble(vol *domain.Volume, p *pass) *domain.Grid {
	g := p.geom
	grid := &domain.Grid{
		PassID:        uuid.NewString(),
		VolumeID:      vol.ID,
		RadarName:     vol.Radar.Name,
		VolumeTime:    vol.StartTime,
		ProcessedAt:   domain.Now(),
		NEl:           g.NEl,
		NAz:           g.NAz,
		NGates:        g.NGates,
		MinAzDeg:      g.MinAzDeg,
		DeltaAzDeg:    g.DeltaAzDeg,
		StartRangeKm:  g.StartRangeKm,
		GateSpacingKm: g.GateSpacingKm,
		ElevationsDeg: slices.Clone(g.ElevationsDeg),
		IsSector:      g.IsSector,
		MissingValue:  p.missing,
		Fields:        make([]domain.GridField, len(p.fields)),
		Stats: domain.GridStats{
			Cells:       g.Cells(),
			RaysUsed:    p.raysUsed,
			RaysSkipped: p.raysSkipped,
		},
	}
	if r.opts.CenterOnRadar {
		grid.Projection = domain.Projection{
			OriginLatDeg:    vol.Radar.LatDeg,
			OriginLonDeg:    vol.Radar.LonDeg,
			CenteredOnRadar: true,
		}
	} else {
		grid.Projection = domain.Projection{OriginLatDeg: r.opts.OriginLatDeg, OriginLonDeg: r.opts.OriginLonDeg}
	}
	for i, f := range p.fields {
		grid.Fields[i] = domain.GridField{FieldDescriptor: f, Data: p.planes[i]}
	}
	for _, ok := range p.hasData {
		if ok {
			grid.Stats.CellsWithData++
		}
	}
	return grid
}
