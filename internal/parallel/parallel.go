// Package parallel runs independent per-item work concurrently.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrency when the caller passes a non-positive limit.
const DefaultWorkers = 4

// MapWithFallback applies fn to every item with at most workers calls in
// flight. Output order matches input order. When fn fails for an item,
// fallback(item, err) supplies its result and the remaining items still run;
// one failure never cancels its siblings. fn receives ctx unchanged, so
// cancelling ctx surfaces as per-item errors that take the fallback.
func MapWithFallback[T, R any](
	ctx context.Context,
	items []T,
	workers int,
	fn func(ctx context.Context, item T) (R, error),
	fallback func(item T, err error) R,
) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	// A plain Group, not WithContext: errors never reach the group.
	var g errgroup.Group
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			result, err := safeCall(ctx, item, fn)
			if err != nil {
				result = fallback(item, err)
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// PanicError wraps a panic raised by a mapped function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "panic in mapped function"
}

func safeCall[T, R any](ctx context.Context, item T, fn func(ctx context.Context, item T) (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result, err = zero, &PanicError{Value: r}
		}
	}()
	return fn(ctx, item)
}
