package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-radar-regrid/internal/domain"
)

// MultiLoader fans a batch out to several sinks in order. The first failure
// aborts the batch so the offsets are not committed.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, grids []*domain.Grid) error {
	for i, l := range m {
		if err := l.LoadBatch(ctx, grids); err != nil {
			return fmt.Errorf("load batch into sink %d: %w", i, err)
		}
	}
	return nil
}
