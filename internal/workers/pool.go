// Package workers provides the bounded worker pool used to fan out independent calls.
package workers

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultWorkers is the worker cap used when none is configured
const DefaultWorkers = 10

// WorkerPool bounds the number of goroutines used for one batch of jobs
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the configured worker cap
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// WorkersFor returns the number of goroutines spawned for a batch of n jobs:
// min(cap, n). Never more workers than jobs.
func (wp *WorkerPool) WorkersFor(n int) int {
	if n < wp.numWorkers {
		return n
	}
	return wp.numWorkers
}

// Completed is the result of one job together with its submission index
type Completed[R any] struct {
	Index  int
	Result R
}

// Process runs fn for every job using at most WorkersFor(len(jobs)) goroutines and
// returns the results in completion order.
//
// Jobs are not started once ctx is done; in that case the results gathered so far are
// returned together with ctx.Err(). fn must handle its own failures: the pool does not
// interpret R.
func Process[J any, R any](ctx context.Context, wp *WorkerPool, jobs []J, fn func(context.Context, J) R) ([]Completed[R], error) {
	numJobs := len(jobs)
	if numJobs == 0 {
		return []Completed[R]{}, nil
	}

	jobCh := make(chan jobItem[J], numJobs)
	results := make(chan Completed[R], numJobs)

	var skipped atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < wp.WorkersFor(numJobs); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobCh, results, fn, &skipped)
		}()
	}

	for idx, job := range jobs {
		jobCh <- jobItem[J]{index: idx, job: job}
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]Completed[R], 0, numJobs)
	for result := range results {
		collected = append(collected, result)
	}

	if skipped.Load() > 0 {
		return collected, ctx.Err()
	}
	return collected, nil
}

type jobItem[J any] struct {
	job   J
	index int
}

func worker[J any, R any](
	ctx context.Context,
	jobs <-chan jobItem[J],
	results chan<- Completed[R],
	fn func(context.Context, J) R,
	skipped *atomic.Int32,
) {
	for item := range jobs {
		if ctx.Err() != nil {
			skipped.Add(1)
			continue
		}

		results <- Completed[R]{
			Index:  item.index,
			Result: fn(ctx, item.job),
		}
	}
}
