// Package worker provides the concurrency primitives used for row-parallel
// verification and polite document fetching.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work, typically one table row
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a job execution
type Result interface {
	GetError() error
}

// Pool executes jobs concurrently on a fixed number of workers. Rows are
// independent of each other, so concurrent execution never reorders effects
// within a row.
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	collected  []Result
	wg         sync.WaitGroup
	collectWg  sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs run under a context derived
// from ctx. Cancelling ctx stops the workers and abandons queued jobs, the
// same as Shutdown.
func NewPoolWithContext(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2), // Buffered to prevent blocking
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool. Results are drained as they are produced
// so workers never block on a full results channel, no matter how many
// jobs are queued ahead of Wait.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.collectWg.Add(1)
	go func() {
		defer p.collectWg.Done()
		for result := range p.results {
			p.collected = append(p.collected, result)
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job for execution
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait waits for all submitted jobs to finish and returns their results.
// No further jobs may be submitted after Wait.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	p.collectWg.Wait()
	return p.collected
}

// Shutdown stops the pool immediately, abandoning queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	p.collectWg.Wait()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
