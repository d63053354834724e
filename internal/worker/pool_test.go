package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.shouldErr {
		return &mockResult{err: errors.New("job error")}
	}
	return &mockResult{err: nil}
}

func TestNewPool(t *testing.T) {
	p1 := NewPool(5)
	if p1.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p1.workers)
	}

	p2 := NewPool(0)
	if p2.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p2.workers)
	}

	p3 := NewPool(-1)
	if p3.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p3.workers)
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var executed int32
	count := 10

	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}

	results := pool.Wait()

	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}

	if atomic.LoadInt32(&executed) != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, executed)
	}
}

func TestPool_ManyMoreJobsThanBuffers(t *testing.T) {
	// Submitting far more jobs than the channel buffers hold must not
	// deadlock; results are drained while jobs are still queued.
	pool := NewPool(2)
	pool.Start()

	var executed int32
	count := 200

	for i := 0; i < count; i++ {
		pool.Submit(&mockJob{executed: &executed})
	}

	results := pool.Wait()

	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
}

func TestPool_ErrorResults(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&mockJob{shouldErr: true})
	pool.Submit(&mockJob{shouldErr: false})
	pool.Submit(&mockJob{shouldErr: true})

	results := pool.Wait()

	errCount := 0
	for _, r := range results {
		if r.GetError() != nil {
			errCount++
		}
	}
	if errCount != 2 {
		t.Errorf("expected 2 error results, got %d", errCount)
	}
}

// concurrencyJob tracks max concurrent executions
type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 4
	pool := NewPool(workers)
	pool.Start()

	var current int32
	var maxConcurrent int32
	var mu sync.Mutex

	totalJobs := 20

	for i := 0; i < totalJobs; i++ {
		pool.Submit(&concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
			},
			duration: 5 * time.Millisecond,
		})
	}

	results := pool.Wait()

	if len(results) != totalJobs {
		t.Errorf("expected %d results, got %d", totalJobs, len(results))
	}

	mu.Lock()
	observed := maxConcurrent
	mu.Unlock()
	if observed > int32(workers) {
		t.Errorf("expected at most %d concurrent jobs, observed %d", workers, observed)
	}
}

// blockingJob waits for its execution context to be cancelled and reports
// the error it observed
type blockingJob struct {
	observed chan error
}

func (j *blockingJob) Execute(ctx context.Context) Result {
	<-ctx.Done()
	j.observed <- ctx.Err()
	return &mockResult{}
}

func TestPool_ParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolWithContext(ctx, 2)
	pool.Start()

	observed := make(chan error, 2)
	pool.Submit(&blockingJob{observed: observed})
	pool.Submit(&blockingJob{observed: observed})

	cancel()

	for i := 0; i < 2; i++ {
		select {
		case err := <-observed:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled in job %d, got %v", i, err)
			}
		case <-time.After(time.Second):
			t.Fatal("job never saw the parent cancellation")
		}
	}

	// Submitting after cancellation must not block
	pool.Submit(&mockJob{})
	pool.Wait()
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&mockJob{})
	pool.Shutdown()

	// Submitting after shutdown must not block or panic
	pool.Submit(&mockJob{})
}
