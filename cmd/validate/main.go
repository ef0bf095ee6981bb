// Command validate regrids volume fixtures written by genmock and checks the
// engine's guarantees: threaded and single-threaded passes agree bit for bit,
// fixtures reproduce, ramps interpolate exactly, folded fields stay inside
// their fold range, and discrete fields only carry source values.
//
// Usage:
//
//	go run ./cmd/validate -fixtures data/mock -threads 8
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
	"github.com/couchcryptid/storm-radar-regrid/internal/regrid"
)

// rampTolerance bounds float32 rounding on a linear ramp.
const rampTolerance = 1e-4

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// fixture is one volume with its single-threaded grid and optional stored grid.
type fixture struct {
	id     string
	vol    *domain.Volume
	single *domain.Grid
	multi  *domain.Grid
	stored *domain.Grid
}

func main() {
	dir := flag.String("fixtures", "", "directory containing *.volume.json fixtures")
	threads := flag.Int("threads", 4, "worker goroutines for the threaded pass")
	flag.Parse()

	if *dir == "" || *threads < 1 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dir, *threads))
}

func run(dir string, threads int) int {
	fmt.Println("=== Radar Regrid Validation ===")
	fmt.Println()

	fixtures, err := loadFixtures(dir, threads)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(fixtures) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no *.volume.json fixtures in %s\n", dir)
		return 1
	}

	phases := []*phase{
		validateEquivalence(fixtures),
		validateStoredGrids(fixtures),
		validateRamps(fixtures),
		validateFoldedRange(fixtures),
		validateDiscreteValues(fixtures),
		validateStats(fixtures),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d volumes, %d threads\n", len(fixtures), threads)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Loading ──

func loadFixtures(dir string, threads int) ([]*fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.volume.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	single := regrid.New(regrid.DefaultOptions(), logger)
	defer single.Close()
	opts := regrid.DefaultOptions()
	opts.UseMultipleThreads = true
	opts.NThreads = threads
	multi := regrid.New(opts, logger)
	defer multi.Close()

	ctx := context.Background()
	out := make([]*fixture, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		vol, err := domain.ParseVolume(domain.RawEvent{Value: data})
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		fx := &fixture{id: strings.TrimSuffix(filepath.Base(path), ".volume.json"), vol: vol}
		if fx.single, err = single.Regrid(ctx, vol); err != nil {
			return nil, fmt.Errorf("single-threaded regrid %s: %w", fx.id, err)
		}
		if fx.multi, err = multi.Regrid(ctx, vol); err != nil {
			return nil, fmt.Errorf("threaded regrid %s: %w", fx.id, err)
		}

		gridPath := filepath.Join(dir, fx.id+".grid.json")
		gridData, err := os.ReadFile(gridPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if fx.stored, err = domain.DecodeGrid(gridData); err != nil {
				return nil, fmt.Errorf("decode %s: %w", gridPath, err)
			}
		}
		out = append(out, fx)
	}
	return out, nil
}

// ── Phases ──

func validateEquivalence(fixtures []*fixture) *phase {
	p := &phase{name: "Threaded/single-threaded equivalence"}
	for _, fx := range fixtures {
		comparePlanes(p, fx.id, fx.single, fx.multi)
		if fx.single.Stats != fx.multi.Stats {
			p.errorf("%s: stats differ: %+v vs %+v", fx.id, fx.single.Stats, fx.multi.Stats)
		}
	}
	return p
}

func validateStoredGrids(fixtures []*fixture) *phase {
	p := &phase{name: "Stored grid fixtures reproduce"}
	for _, fx := range fixtures {
		if fx.stored == nil {
			continue
		}
		if fx.stored.NEl != fx.single.NEl || fx.stored.NAz != fx.single.NAz || fx.stored.NGates != fx.single.NGates {
			p.errorf("%s: shape %dx%dx%d, fixture %dx%dx%d", fx.id,
				fx.single.NEl, fx.single.NAz, fx.single.NGates,
				fx.stored.NEl, fx.stored.NAz, fx.stored.NGates)
			continue
		}
		comparePlanes(p, fx.id, fx.stored, fx.single)
	}
	return p
}

func validateRamps(fixtures []*fixture) *phase {
	p := &phase{name: "Linear ramp exactness"}
	for _, fx := range fixtures {
		g := fx.single
		f := g.Field("RAMP")
		if f == nil {
			continue
		}
		for iel := range g.NEl {
			for iaz := range g.NAz {
				want := g.AzimuthDeg(iaz) / 100
				for ig := range g.NGates {
					v, ok := g.Value(f, iel, iaz, ig)
					if !ok {
						p.errorf("%s: el %d az %d gate %d missing", fx.id, iel, iaz, ig)
						continue
					}
					if math.Abs(float64(v)-want) > rampTolerance {
						p.errorf("%s: el %d az %d gate %d = %v, want %v", fx.id, iel, iaz, ig, v, want)
					}
				}
			}
		}
	}
	return p
}

func validateFoldedRange(fixtures []*fixture) *phase {
	p := &phase{name: "Folded fields within fold range"}
	for _, fx := range fixtures {
		g := fx.single
		for i := range g.Fields {
			f := &g.Fields[i]
			if !f.FieldFolds || f.IsDiscrete || f.FoldRange <= 0 {
				continue
			}
			lo, hi := f.FoldLimitLower, f.FoldLimitLower+f.FoldRange
			for j, v := range f.Data {
				if v == g.MissingValue {
					continue
				}
				if float64(v) < lo || float64(v) >= hi {
					p.errorf("%s: %s[%d] = %v outside [%v, %v)", fx.id, f.Name, j, v, lo, hi)
				}
			}
		}
	}
	return p
}

func validateDiscreteValues(fixtures []*fixture) *phase {
	p := &phase{name: "Discrete fields keep source values"}
	for _, fx := range fixtures {
		g := fx.single
		for i := range g.Fields {
			f := &g.Fields[i]
			if !f.IsDiscrete {
				continue
			}
			seen := sourceValues(fx.vol, i)
			for j, v := range f.Data {
				if v == g.MissingValue {
					continue
				}
				if _, ok := seen[v]; !ok {
					p.errorf("%s: %s[%d] = %v never appears in the source rays", fx.id, f.Name, j, v)
				}
			}
		}
	}
	return p
}

func validateStats(fixtures []*fixture) *phase {
	p := &phase{name: "Pass statistics consistent"}
	for _, fx := range fixtures {
		s := fx.single.Stats
		if s.Cells != fx.single.NEl*fx.single.NAz {
			p.errorf("%s: %d cells, grid has %d", fx.id, s.Cells, fx.single.NEl*fx.single.NAz)
		}
		if s.CellsWithData > s.Cells {
			p.errorf("%s: %d cells with data exceeds %d cells", fx.id, s.CellsWithData, s.Cells)
		}
		if s.RaysUsed+s.RaysSkipped != len(fx.vol.Rays) {
			p.errorf("%s: %d used + %d skipped rays, volume has %d", fx.id, s.RaysUsed, s.RaysSkipped, len(fx.vol.Rays))
		}
	}
	return p
}

// ── Helpers ──

func comparePlanes(p *phase, id string, want, got *domain.Grid) {
	if len(want.Fields) != len(got.Fields) {
		p.errorf("%s: %d fields vs %d", id, len(want.Fields), len(got.Fields))
		return
	}
	for i := range want.Fields {
		a, b := want.Fields[i].Data, got.Fields[i].Data
		if len(a) != len(b) {
			p.errorf("%s: %s has %d values vs %d", id, want.Fields[i].Name, len(a), len(b))
			continue
		}
		for j := range a {
			if math.Float32bits(a[j]) != math.Float32bits(b[j]) {
				p.errorf("%s: %s[%d] = %v vs %v", id, want.Fields[i].Name, j, a[j], b[j])
				break
			}
		}
	}
}

func sourceValues(vol *domain.Volume, ifield int) map[float32]struct{} {
	seen := make(map[float32]struct{})
	for i := range vol.Rays {
		if ifield >= len(vol.Rays[i].Data) {
			continue
		}
		for _, v := range vol.Rays[i].Data[ifield] {
			if v != vol.MissingValue {
				seen[v] = struct{}{}
			}
		}
	}
	return seen
}
