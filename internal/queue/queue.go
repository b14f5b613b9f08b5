package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/tliron/commonlog"
)

var (
	// ErrClosed resolves handles of tasks scheduled after Close.
	ErrClosed = errors.New("queue closed")

	// ErrPanic wraps a panic recovered from a task.
	ErrPanic = errors.New("task panicked")
)

// Task is a named unit of work.
type Task struct {
	Name    string
	Execute func() error
}

// Handle observes the completion of one scheduled task.
type Handle struct {
	name string
	done chan struct{}
	err  error
}

func newHandle(name string) *Handle {
	return &Handle{name: name, done: make(chan struct{})}
}

func (h *Handle) resolve(err error) {
	h.err = err
	close(h.done)
}

// Name returns the task name.
func (h *Handle) Name() string {
	return h.name
}

// Done is closed once the task has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's error. It is only meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type entry struct {
	task   Task
	handle *Handle
}

// Queue runs tasks one at a time, in the order they were scheduled, on a
// goroutine it owns. Scheduling never blocks.
type Queue struct {
	log commonlog.Logger

	mu      sync.Mutex
	pending []entry
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for task failures.
func WithLogger(log commonlog.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

// New creates a Queue and starts its worker.
func New(opts ...Option) *Queue {
	q := &Queue{
		log:     commonlog.GetLogger("docspace.queue"),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	go q.run()
	return q
}

// Schedule enqueues fn under name and returns its handle. A task scheduled
// after Close resolves immediately with ErrClosed.
func (q *Queue) Schedule(name string, fn func() error) *Handle {
	h := newHandle(name)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		h.resolve(fmt.Errorf("scheduling %s: %w", name, ErrClosed))
		return h
	}
	q.pending = append(q.pending, entry{task: Task{Name: name, Execute: fn}, handle: h})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return h
}

// Len returns the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops accepting tasks and waits until every task already scheduled has
// run, or ctx is done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.log.Debugf("closing with %d pending tasks", len(q.pending))
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case <-q.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		e := q.pending[0]
		q.pending[0] = entry{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := q.execute(e.task)
		if err != nil {
			q.log.Errorf("task %s failed: %s", e.task.Name, err)
		}
		e.handle.resolve(err)
	}
}

func (q *Queue) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Debugf("task %s panic stack:\n%s", task.Name, debug.Stack())
			err = fmt.Errorf("%w: %s: %v", ErrPanic, task.Name, r)
		}
	}()
	if task.Execute == nil {
		return nil
	}
	return task.Execute()
}
