// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/tomtom215/taxidash/internal/metrics"
)

// ErrPoolClosed is returned when work is submitted after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool is the process-wide pool that runs partition-local queries.
// Workers start on first use and live until Close; the supervisor closes
// the pool at shutdown through Serve.
type WorkerPool struct {
	size      int
	tasks     chan func()
	startOnce sync.Once
	wg        sync.WaitGroup

	// mu guards closed. Submitters hold the read lock while sending so
	// Close never closes the channel under a pending send.
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool with size workers (runtime.NumCPU() when size <= 0).
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &WorkerPool{
		size:  size,
		tasks: make(chan func()),
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

func (p *WorkerPool) start() {
	p.startOnce.Do(func() {
		p.wg.Add(p.size)
		for i := 0; i < p.size; i++ {
			go p.worker()
		}
	})
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		metrics.PoolActiveWorkers.Inc()
		task()
		metrics.PoolActiveWorkers.Dec()
	}
}

// Submit hands task to a worker, blocking until one is free or ctx is done.
func (p *WorkerPool) Submit(ctx context.Context, task func()) error {
	p.start()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for running tasks to finish.
// It is safe to call more than once.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Serve implements suture.Service: it starts the workers and closes the
// pool when ctx is cancelled.
func (p *WorkerPool) Serve(ctx context.Context) error {
	p.start()
	<-ctx.Done()
	p.Close()
	return ctx.Err()
}

func (p *WorkerPool) String() string {
	return fmt.Sprintf("engine-worker-pool(%d)", p.size)
}

// runPartitions runs fn for every plan on the pool and returns the results
// in plan order. The first error cancels work that has not started yet.
func runPartitions[T any](ctx context.Context, pool *WorkerPool, plans []*Plan, fn func(context.Context, *Plan) (T, error)) ([]T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]T, len(plans))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for i, plan := range plans {
		idx, plan := i, plan
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					setErr(fmt.Errorf("partition %d panicked: %v", idx, r))
				}
			}()
			if err := ctx.Err(); err != nil {
				metrics.RecordPoolTask(err, true)
				setErr(err)
				return
			}
			res, err := fn(ctx, plan)
			metrics.RecordPoolTask(err, false)
			if err != nil {
				setErr(err)
				return
			}
			results[idx] = res
		})
		if err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
