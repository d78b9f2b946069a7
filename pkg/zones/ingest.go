package zones

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kass/go-geo-zones/pkg/models"
)

// IngestOptions controls Grid.Ingest
type IngestOptions struct {
	// Workers is the number of goroutines used; <= 0 means runtime.NumCPU().
	// With a single worker agents land in each zone in input order.
	Workers int
	// SkipOutOfRange drops agents outside the grid instead of failing the batch
	SkipOutOfRange bool
}

// IngestStats summarizes an ingestion run
type IngestStats struct {
	Added   int64
	Skipped int64
}

// Ingest bins all agents into the grid. The first error aborts the batch.
func (g *Grid) Ingest(ctx context.Context, agents []*models.Agent, opts IngestOptions) (IngestStats, error) {
	var stats IngestStats
	if len(agents) == 0 {
		return stats, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(agents) {
		workers = len(agents)
	}

	var added, skipped atomic.Int64
	batchSize := (len(agents) + workers - 1) / workers

	eg, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(agents); start += batchSize {
		end := start + batchSize
		if end > len(agents) {
			end = len(agents)
		}
		batch := agents[start:end]

		eg.Go(func() error {
			for i, agent := range batch {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if agent == nil {
					continue
				}
				if _, err := g.Add(agent); err != nil {
					if opts.SkipOutOfRange && errors.Is(err, ErrOutOfRange) {
						skipped.Add(1)
						continue
					}
					return err
				}
				added.Add(1)
			}
			return nil
		})
	}

	err := eg.Wait()
	stats.Added = added.Load()
	stats.Skipped = skipped.Load()
	if err != nil {
		return stats, fmt.Errorf("ingest: %w", err)
	}
	return stats, nil
}
