// Package parallel runs independent propagation tasks with bounded
// concurrency. Each task owns its data: the pool only coordinates
// scheduling, cancellation and the first error.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPoolShutdown is returned when trying to submit tasks to a pool that is
// already waiting for its tasks.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// WorkerPool runs submitted tasks on at most maxWorkers goroutines. The
// first failing task cancels the context handed to the others.
type WorkerPool struct {
	maxWorkers int
	g          *errgroup.Group
	ctx        context.Context

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool bound to ctx. If maxWorkers is 0 or
// negative, it defaults to the number of CPU cores.
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	return &WorkerPool{maxWorkers: maxWorkers, g: g, ctx: gctx}
}

// MaxWorkers returns the concurrency limit.
func (wp *WorkerPool) MaxWorkers() int { return wp.maxWorkers }

// Submit schedules task, blocking while every worker is busy. It fails
// once the pool context is done or Wait has been called.
func (wp *WorkerPool) Submit(task func(ctx context.Context) error) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolShutdown
	}
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	wp.g.Go(func() error { return task(wp.ctx) })
	return nil
}

// Wait stops accepting tasks and blocks until the submitted ones return.
// It returns the first task error.
func (wp *WorkerPool) Wait() error {
	wp.mu.Lock()
	wp.closed = true
	wp.mu.Unlock()
	return wp.g.Wait()
}

// Map applies fn to every item on a pool of the given size and returns the
// results in input order. The first error cancels the remaining calls.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	wp := NewWorkerPool(ctx, workers)
	for i, item := range items {
		err := wp.Submit(func(ctx context.Context) error {
			r, err := fn(ctx, i, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
		if err != nil {
			// the pool context is done: report the task error behind it
			if werr := wp.Wait(); werr != nil {
				return nil, werr
			}
			return nil, err
		}
	}
	if err := wp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
