package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunPreservesInputOrder(t *testing.T) {
	pool := NewPool[int, int](4)
	items := []int{5, 3, 8, 1, 9, 2}
	results := pool.Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Item != items[i] {
			t.Fatalf("result %d out of order: %v", i, r.Item)
		}
		if r.Out != items[i]*2 {
			t.Fatalf("result %d wrong value: %v", i, r.Out)
		}
	}
}

func TestConcurrencyCap(t *testing.T) {
	const limit = 3
	pool := NewPool[int, struct{}](limit)

	var inFlight, peak int64
	var mu sync.Mutex
	items := make([]int, 50)
	pool.Run(context.Background(), items, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		atomic.AddInt64(&inFlight, -1)
		return struct{}{}, nil
	})
	if peak > limit {
		t.Fatalf("peak concurrency %d exceeded cap %d", peak, limit)
	}
}

func TestErrorsAreIsolatedPerItem(t *testing.T) {
	pool := NewPool[int, int](2)
	boom := errors.New("boom")
	results := pool.Run(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatal("healthy items should not inherit another item's error")
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected boom for item 2, got %v", results[1].Err)
	}
}

func TestCancelledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewPool[int, int](1)
	results := pool.Run(ctx, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		t.Fatal("no item should start on a cancelled context")
		return 0, nil
	})
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", r.Err)
		}
	}
}
