// Package loop provides the single-threaded event loop every seat component
// runs on. Input sources on other goroutines hand work to the loop with Post;
// components on the loop defer work to the next iteration with AddIdle.
package loop

import (
	"context"
	"errors"
)

// ErrClosed is returned when posting to a closed loop
var ErrClosed = errors.New("event loop is closed")

// Loop is a cooperative event loop.
type Loop struct {
	tasks  chan func()
	idle   []func()
	done   chan struct{}
	closed bool
}

// New creates a new event loop.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Post queues fn to run on the loop goroutine. It is safe to call from any
// goroutine and blocks only while the task queue is full.
func (l *Loop) Post(fn func()) error {
	return l.PostContext(context.Background(), fn)
}

// PostContext is Post that also gives up with ctx's error once ctx is done.
func (l *Loop) PostContext(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddIdle queues fn to run at the start of the next loop iteration, before
// any further posted work. It must only be called on the loop goroutine.
func (l *Loop) AddIdle(fn func()) {
	l.idle = append(l.idle, fn)
}

// PendingIdle returns the number of queued idle tasks.
func (l *Loop) PendingIdle() int {
	return len(l.idle)
}

// dispatchIdle runs the idle tasks queued so far. Tasks queued while these
// run are left for the next iteration.
func (l *Loop) dispatchIdle() {
	batch := l.idle
	l.idle = nil
	for _, fn := range batch {
		fn()
	}
}

// DispatchPending runs one loop iteration without blocking: idle tasks,
// then every posted task already queued, then idle tasks queued by those.
func (l *Loop) DispatchPending() {
	l.dispatchIdle()
	for {
		select {
		case fn := <-l.tasks:
			fn()
		default:
			l.dispatchIdle()
			return
		}
	}
}

// Run dispatches until the context is cancelled or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.dispatchIdle()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
			l.drain()
		}
	}
}

// drain runs the posted tasks that are already queued, one batch.
func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		default:
			return
		}
	}
}

// Close stops Run and rejects further posts. It must be called on the loop
// goroutine or after Run has returned.
func (l *Loop) Close() {
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}
