// Package batch runs a worker over a fixed list of items in consecutive
// bounded-concurrency slices, preserving input order in the results.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run partitions items into consecutive slices of at most concurrency
// elements. Items within a slice run concurrently; slice N+1 starts only
// after every worker in slice N has returned. Results land at the index of
// the item that produced them, so output order always matches input order.
//
// A fixed delay separates slices (skipped after the last one) as a simple
// politeness throttle for the remote hosts. Workers are expected to convert
// their own failures into classified results; Run only fails when ctx is
// cancelled, and then still returns the results gathered so far.
func Run[T, R any](ctx context.Context, items []T, worker func(context.Context, T) R, concurrency int, delay time.Duration) ([]R, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]R, len(items))

	for start := 0; start < len(items); start += concurrency {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := min(start+concurrency, len(items))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i] = worker(gctx, items[i])
				return nil
			})
		}
		// Workers never return errors, so Wait only synchronizes the slice.
		_ = g.Wait()

		if end < len(items) && delay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return results, nil
}
