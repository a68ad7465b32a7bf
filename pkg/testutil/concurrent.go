// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
)

// ConcurrentResult tallies outcomes of RunConcurrent.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent starts n goroutines behind a shared gate so they race as
// closely as possible, then classifies each returned error. Conflicts are
// recognised both as sentinel.ErrConflict and as CodeConflict domain errors.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                                     sync.WaitGroup
		successes, conflicts, notFounds, other atomic.Int32
	)
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				other.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Errors:    other.Load(),
	}
}
