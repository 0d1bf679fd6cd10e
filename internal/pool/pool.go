// Package pool provides a generic concurrency-limited task runner.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Run executes task once per item with at most limit tasks in flight. It
// checks ctx before admitting each task and stops scheduling the remaining
// items once cancellation is observed; tasks already admitted run to
// completion (or to their own cancellation check). Run returns only after
// every admitted task has finished. Task failures are the task's own
// business: the function signature forces callers to handle them inside the
// task so a failing item can never abort its siblings.
func Run[T any](ctx context.Context, items []T, limit int, task func(context.Context, T)) {
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		// Acquire fails only when ctx is done, which also stops admission.
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(item T) {
			defer wg.Done()
			defer sem.Release(1)
			task(ctx, item)
		}(item)
	}
	wg.Wait()
}
