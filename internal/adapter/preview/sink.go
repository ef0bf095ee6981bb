// Package preview renders regridded volumes as PNG azimuth profiles for
// quick visual checks of a pass.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/couchcryptid/storm-radar-regrid/internal/observability"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// Sink writes one PNG per grid elevation. It implements pipeline.BatchLoader.
type Sink struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSink creates the output directory and returns a Sink writing into it.
func NewSink(dir string, logger *slog.Logger, metrics *observability.Metrics) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return &Sink{dir: dir, logger: logger, metrics: metrics}, nil
}

// LoadBatch renders every elevation of every grid.
func (s *Sink) LoadBatch(ctx context.Context, grids []*domain.Grid) error {
	for _, g := range grids {
		for iel := range g.NEl {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := s.writeElevation(g, iel)
			if err != nil {
				return fmt.Errorf("preview %s elevation %d: %w", g.VolumeID, iel, err)
			}
			s.metrics.PreviewsWritten.Inc()
			s.logger.Debug("preview written", "volume_id", g.VolumeID, "path", path)
		}
	}
	return nil
}

// Path returns the file a given elevation of a volume is written to.
func (s *Sink) Path(volumeID string, iel int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_el%02d.png", sanitize(volumeID), iel))
}

func (s *Sink) writeElevation(g *domain.Grid, iel int) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s - Elevation %.1f°", g.RadarName, g.VolumeTime.Format("2006-01-02 15:04Z"), g.ElevationsDeg[iel])
	p.X.Label.Text = "Azimuth (deg)"
	p.Y.Label.Text = "Mean over gates"
	p.Legend.Top = true

	for i := range g.Fields {
		f := &g.Fields[i]
		for j, seg := range AzimuthProfile(g, f, iel) {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", f.Name, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(1)
			p.Add(line)
			if j == 0 {
				p.Legend.Add(f.Name, line)
			}
		}
	}

	path := s.Path(g.VolumeID, iel)
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return "", fmt.Errorf("save plot: %w", err)
	}
	return path, nil
}

// AzimuthProfile returns the per-azimuth mean of a field over its valid
// gates, split into contiguous runs. Azimuths without data break the line.
func AzimuthProfile(g *domain.Grid, f *domain.GridField, iel int) []plotter.XYs {
	var (
		segs []plotter.XYs
		cur  plotter.XYs
	)
	vals := make([]float64, 0, g.NGates)
	for iaz := range g.NAz {
		vals = vals[:0]
		for ig := range g.NGates {
			if v, ok := g.Value(f, iel, iaz, ig); ok {
				vals = append(vals, float64(v))
			}
		}
		if len(vals) == 0 {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: g.AzimuthDeg(iaz), Y: stat.Mean(vals, nil)})
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, id)
}
