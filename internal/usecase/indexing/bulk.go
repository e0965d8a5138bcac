package indexing

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// IDLister enumerates the catalog entities of a kind.
type IDLister interface {
	IDs(ctx context.Context, kind domain.Kind) ([]int64, error)
}

// BulkOptions bounds a bulk reindex. Workers <= 0 runs one worker;
// Rate <= 0 leaves entities unthrottled.
type BulkOptions struct {
	Workers int
	Rate    float64
}

// BulkStats counts the outcome of reindexing one kind.
type BulkStats struct {
	Kind    domain.Kind
	Indexed int
	Failed  int
}

// ReindexAll rebuilds the documents of every entity of kinds. An entity
// that fails to load, project or store is logged and counted as failed;
// only listing errors and cancellation stop the run.
func (s *Service) ReindexAll(
	ctx context.Context, lister IDLister, kinds []domain.Kind, opts BulkOptions,
) ([]BulkStats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), workers)
	}

	stats := make([]BulkStats, 0, len(kinds))
	for _, kind := range kinds {
		ids, err := lister.IDs(ctx, kind)
		if err != nil {
			return stats, fmt.Errorf("list %s: %w", kind, err)
		}

		var indexed, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, id := range ids {
			if err := limiter.Wait(gctx); err != nil {
				break
			}
			g.Go(func() error {
				if _, err := s.reindex(gctx, kind, id); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failed.Add(1)
					if errors.Is(err, errNotStored) {
						return nil
					}
					s.logger.Warn("reindex failed",
						zap.String("kind", string(kind)),
						zap.Int64("id", id),
						zap.Error(err),
					)
					return nil
				}
				indexed.Add(1)
				return nil
			})
		}
		werr := g.Wait()

		stats = append(stats, BulkStats{Kind: kind, Indexed: int(indexed.Load()), Failed: int(failed.Load())})
		if werr != nil {
			return stats, fmt.Errorf("reindex %s: %w", kind, werr)
		}
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("reindex %s: %w", kind, err)
		}
		s.logger.Info("kind reindexed",
			zap.String("kind", string(kind)),
			zap.Int("indexed", int(indexed.Load())),
			zap.Int("failed", int(failed.Load())),
		)
	}
	return stats, nil
}
