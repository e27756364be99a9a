// worker/pool.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrClosed = errors.New("worker pool closed")

type Job[T any] func(ctx context.Context) T

// Result is a finished job. Err is set, and Output is zero, when the job
// panicked.
type Result[T any] struct {
	JobID  string
	Output T
	Err    error
}

// PanicError wraps the value a job panicked with.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// Pool runs jobs on a fixed number of goroutines. Callers must drain
// Results; it is closed once Close has waited for every worker.
type Pool[T any] struct {
	ctx     context.Context
	jobs    chan jobWrapper[T]
	results chan Result[T]

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

// NewPool starts workerCount workers. Jobs receive ctx.
func NewPool[T any](ctx context.Context, workerCount int, bufferSize int) *Pool[T] {
	p := &Pool[T]{
		ctx:     ctx,
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
	}

	for i := 0; i < max(workerCount, 1); i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.results <- p.run(job)
	}
}

func (p *Pool[T]) run(job jobWrapper[T]) (res Result[T]) {
	res.JobID = job.id
	defer func() {
		if v := recover(); v != nil {
			res.Err = &PanicError{Value: v}
		}
	}()
	res.Output = job.fn(p.ctx)
	return res
}

// Submit queues a job, blocking while the buffer is full.
func (p *Pool[T]) Submit(ctx context.Context, id string, fn Job[T]) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.jobs <- jobWrapper[T]{id: id, fn: fn}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close stops accepting jobs, waits for queued jobs to finish and then
// closes Results. It is safe to call more than once.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
}
