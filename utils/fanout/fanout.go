// Package fanout runs independent calls with bounded concurrency and keeps
// every per-item outcome instead of stopping at the first failure.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is used when callers pass a non-positive limit
const DefaultLimit = 4

// Result is the outcome of one item, at the same index as its input
type Result[T any] struct {
	Value T
	Err   error
}

// Run calls fn for every item with at most limit calls in flight.
// Results are returned in input order.
func Run[I, O any](ctx context.Context, limit int, items []I, fn func(ctx context.Context, item I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			value, err := fn(ctx, item)
			results[i] = Result[O]{Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
