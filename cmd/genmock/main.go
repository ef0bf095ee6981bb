// Command genmock writes synthetic radar volume fixtures and the grids the
// regrid engine produces for them. It uses the real domain and regrid
// packages so the fixtures match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
//	go run ./cmd/genmock -out data/mock -scenarios KTLX-ramp,KFWS-sector
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/couchcryptid/storm-radar-regrid/internal/mockvol"
	"github.com/couchcryptid/storm-radar-regrid/internal/regrid"
	"github.com/jonboulle/clockwork"
)

// scanInterval spaces the ProcessedAt stamps of consecutive fixtures.
const scanInterval = 6 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for volume and grid fixtures")
	names := flag.String("scenarios", "", "comma-separated scenario IDs (default: all)")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	scenarios, err := selectScenarios(*names)
	if err != nil {
		return err
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	clock := clockwork.NewFakeClockAt(mockvol.BaseTime.Add(15 * time.Minute))
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	r := regrid.New(regrid.DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer r.Close()

	for _, s := range scenarios {
		vol := s.Build()

		volData, err := domain.MarshalVolume(vol)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", s.ID, err)
		}
		volPath := filepath.Join(*outDir, s.ID+".volume.json")
		if err := writeFile(volPath, volData); err != nil {
			return fmt.Errorf("writing volume fixture: %w", err)
		}

		grid, err := r.Regrid(context.Background(), vol)
		if err != nil {
			return fmt.Errorf("regrid %s: %w", s.ID, err)
		}
		out, err := domain.EncodeGrid(grid)
		if err != nil {
			return fmt.Errorf("encode %s: %w", s.ID, err)
		}
		gridPath := filepath.Join(*outDir, s.ID+".grid.json")
		if err := writeFile(gridPath, out.Value); err != nil {
			return fmt.Errorf("writing grid fixture: %w", err)
		}

		log.Printf("%s: %d rays -> %s, %s", s.ID, len(vol.Rays), volPath, gridPath)
		printStats(grid)
		clock.Advance(scanInterval)
	}
	return nil
}

func selectScenarios(names string) ([]mockvol.Scenario, error) {
	all := mockvol.All()
	if names == "" {
		return all, nil
	}
	byID := make(map[string]mockvol.Scenario, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}
	var out []mockvol.Scenario
	for _, id := range strings.Split(names, ",") {
		s, ok := byID[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", id)
		}
		out = append(out, s)
	}
	return out, nil
}

// writeFile re-indents JSON so fixtures diff cleanly.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func printStats(g *domain.Grid) {
	fmt.Printf("  grid: n_el=%d n_az=%d n_gates=%d min_az=%.3f delta_az=%.3f sector=%t\n",
		g.NEl, g.NAz, g.NGates, g.MinAzDeg, g.DeltaAzDeg, g.IsSector)
	fmt.Printf("  cells: %d total, %d with data; rays: %d used, %d skipped\n",
		g.Stats.Cells, g.Stats.CellsWithData, g.Stats.RaysUsed, g.Stats.RaysSkipped)
	for i := range g.Fields {
		f := &g.Fields[i]
		n := 0
		for _, v := range f.Data {
			if v != g.MissingValue {
				n++
			}
		}
		fmt.Printf("  %-6s %d/%d samples\n", f.Name, n, len(f.Data))
	}
}
