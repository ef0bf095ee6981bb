package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/couchcryptid/storm-radar-regrid/internal/observability"
)

// Regridder interpolates a parsed volume onto its polar grid.
type Regridder interface {
	Regrid(ctx context.Context, vol *domain.Volume) (*domain.Grid, error)
}

// GridTransformer implements Transformer by parsing the volume message and
// running one regrid pass.
type GridTransformer struct {
	regridder Regridder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a GridTransformer.
func NewTransformer(r Regridder, logger *slog.Logger, metrics *observability.Metrics) *GridTransformer {
	return &GridTransformer{
		regridder: r,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *GridTransformer) Transform(ctx context.Context, raw domain.RawEvent) (*domain.Grid, error) {
	vol, err := domain.ParseVolume(raw)
	if err != nil {
		t.metrics.TransformErrors.WithLabelValues("parse").Inc()
		return nil, err
	}

	start := time.Now()
	grid, err := t.regridder.Regrid(ctx, vol)
	if err != nil {
		if ctx.Err() == nil {
			t.metrics.TransformErrors.WithLabelValues("regrid").Inc()
		}
		return nil, err
	}
	elapsed := time.Since(start)

	t.metrics.RegridDuration.Observe(elapsed.Seconds())
	t.metrics.GridCells.WithLabelValues("data").Add(float64(grid.Stats.CellsWithData))
	t.metrics.GridCells.WithLabelValues("missing").Add(float64(grid.Stats.Cells - grid.Stats.CellsWithData))
	t.metrics.RaysSkipped.Add(float64(grid.Stats.RaysSkipped))

	t.logger.Info("volume regridded",
		"volume_id", grid.VolumeID,
		"radar", grid.RadarName,
		"pass_id", grid.PassID,
		"n_el", grid.NEl,
		"n_az", grid.NAz,
		"n_gates", grid.NGates,
		"is_sector", grid.IsSector,
		"cells_with_data", grid.Stats.CellsWithData,
		"duration", elapsed,
	)
	return grid, nil
}
