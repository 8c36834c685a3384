package march

import (
	"context"
	"runtime"

	"github.com/chazu/isomesh/pkg/field"
	"golang.org/x/sync/errgroup"
)

// MarchParallel is March with x-slabs spread over workers. Each slab fills
// its own buffer and the buffers are joined in slab order, so the result is
// identical to March. f must be safe for concurrent use. workers <= 0 uses
// GOMAXPROCS. Cancelling ctx stops scheduling further slabs.
func MarchParallel(ctx context.Context, f field.Field, isovalue float64, g Grid, workers int) ([]float32, Stats, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	starts := g.Starts()
	slabs := make([][]float32, len(starts))
	slabStats := make([]Stats, len(starts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, x := range starts {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slabs[i] = marchSlab(nil, &slabStats[i], f, isovalue, g.Step, x, starts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var (
		total int
		stats Stats
	)
	for i, s := range slabs {
		total += len(s)
		stats.Add(slabStats[i])
	}
	out := make([]float32, 0, total)
	for _, s := range slabs {
		out = append(out, s...)
	}
	return out, stats, nil
}
