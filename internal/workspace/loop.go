package workspace

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrLoopStopped is returned by Do once the loop has shut down.
var ErrLoopStopped = errors.New("workspace: loop stopped")

type task struct {
	fn   func() error
	done chan error
}

// Loop is the host's UI event loop: a single goroutine that runs submitted
// work one item at a time, so workspace state is only ever touched from
// one logical thread.
type Loop struct {
	tasks   chan task
	stopped chan struct{}
	started atomic.Bool
}

// NewLoop creates a loop; call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		tasks:   make(chan task),
		stopped: make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-l.tasks:
			t.done <- t.fn()
		}
	}
}

// Do runs fn on the loop and waits for its result. fn must not call Do.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case l.tasks <- t:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
