// Package worker provides a bounded pool for processing independent
// documents in parallel. Work is partitioned by item, never by shared record:
// two workers never see the same item, which is what lets pipeline stages
// write to disjoint key spaces without record-level locking.
package worker

import (
	"context"
	"sync"
)

// Result pairs one input item with its outcome.
type Result[T any, R any] struct {
	Item T
	Out  R
	Err  error
}

// Pool runs a fixed number of workers over a slice of items.
type Pool[T any, R any] struct {
	Concurrency int
}

// NewPool returns a pool with the given worker cap (minimum 1).
func NewPool[T any, R any](concurrency int) *Pool[T, R] {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool[T, R]{Concurrency: concurrency}
}

// Run applies fn to every item with at most Concurrency workers in flight.
// Cancellation is cooperative at item boundaries: once ctx is done no new
// item is started, but in-flight items finish. Results are returned in input
// order so callers stay deterministic.
func (p *Pool[T, R]) Run(ctx context.Context, items []T, fn func(context.Context, T) (R, error)) []Result[T, R] {
	results := make([]Result[T, R], len(items))
	throttle := make(chan struct{}, p.Concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		if ctx.Err() != nil {
			results[i] = Result[T, R]{Item: item, Err: ctx.Err()}
			continue
		}
		throttle <- struct{}{}
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-throttle }()
			out, err := fn(ctx, item)
			results[i] = Result[T, R]{Item: item, Out: out, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
