// Package workpool bounds how many deploy tasks run concurrently within
// a single dependency wave (spec.md §5). Grounded on the teacher's
// taskrunner channel-select idiom (pkg/apply/taskrunner.runner), but
// simplified: tc has no wait-task/status-poller distinction, so a wave
// is just a fixed-size fan-out with a WaitGroup and a buffered
// semaphore, not a long-lived event loop.
package workpool

import (
	"context"
	"sync"

	"k8s.io/klog/v2"
)

// Pool bounds concurrent execution to Size goroutines.
type Pool struct {
	Size int
}

// New returns a Pool sized to size, collapsed to a single worker when
// sync is true (TC_SYNC_CREATE=1, spec.md's environment variable list).
func New(size int, sync bool) *Pool {
	if sync {
		size = 1
	}
	if size < 1 {
		size = 1
	}
	return &Pool{Size: size}
}

// Run fans fn out across n items, at most Size running at once, and
// returns the first non-nil error any invocation produced. Every item
// still runs to completion even after a failure, so a failing wave
// never leaves a partially-started task behind.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	sem := make(chan struct{}, p.Size)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		i := i
		select {
		case <-ctx.Done():
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
			sem <- struct{}{}
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(ctx, i); err != nil {
				klog.V(1).Infof("workpool: item %d failed: %v", i, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return firstErr
}
