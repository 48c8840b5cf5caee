// Package workqueue provides a serialized execution context: a FIFO of jobs
// drained by exactly one goroutine.
//
// The log store owns one Queue as its work context so that every unit of
// work against the log runs one at a time. Callers can own another Queue
// and pass it as the Dispatcher on which completions are delivered.
package workqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher runs a function on some execution context.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch calls d(fn).
func (d DispatcherFunc) Dispatch(fn func()) { d(fn) }

// Inline runs jobs synchronously on the calling goroutine.
// Useful for tests and one-shot commands.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Detached runs every job on its own new goroutine.
var Detached Dispatcher = DispatcherFunc(func(fn func()) { go fn() })

// Queue is a thread-safe, unbounded FIFO of jobs with a single-goroutine
// Run loop.
//
// Thread-safety model:
//   - Submit, Dispatch, Stop, Len: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Queue struct {
	name   string
	mu     sync.Mutex
	jobs   []func()
	closed bool
	signal chan struct{} // buffered, size 1; closed on Stop
}

// New creates an empty queue. The name is used in log messages.
func New(name string) *Queue {
	return &Queue{
		name:   name,
		jobs:   make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Submit appends a job. Returns false if the queue has been stopped.
func (q *Queue) Submit(job func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, job)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Dispatch implements Dispatcher. If the queue has been stopped the job
// runs on its own goroutine instead, so a completion is never dropped.
func (q *Queue) Dispatch(job func()) {
	if !q.Submit(job) {
		go job()
	}
}

func (q *Queue) tryDequeue() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	q.jobs[0] = nil // release the closure for GC
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return job, true
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Stop prevents further submissions. Run drains the jobs already queued
// and then returns.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Run executes jobs in submission order until ctx is cancelled or the queue
// is stopped and drained. A panicking job is logged and does not stop the loop.
func (q *Queue) Run(ctx context.Context) error {
	slog.Debug("work queue starting", "queue", q.name)

	for {
		if job, ok := q.tryDequeue(); ok {
			q.runJob(job)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("work queue stopping: context cancelled", "queue", q.name)
			q.Stop()
			return ctx.Err()

		case <-q.signal:
			// The signal channel is closed by Stop, so this fires
			// immediately once stopped.
			q.mu.Lock()
			drained := q.closed && len(q.jobs) == 0
			q.mu.Unlock()
			if drained {
				slog.Debug("work queue stopping: stopped", "queue", q.name)
				return nil
			}
		}
	}
}

func (q *Queue) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("work queue job panicked",
				"queue", q.name,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	job()
}

// Start runs the queue on a new goroutine and returns a function that stops
// it and waits for the loop to exit.
func (q *Queue) Start(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	return func() {
		q.Stop()
		<-done
	}
}
