// Package bridge runs resolution work on a dedicated worker goroutine so that
// synchronous callers can wait on asynchronous dependency chains without
// owning the execution themselves.
//
// A single shared worker processes all submitted tasks in order. This keeps
// bridged execution single-threaded and simple to reason about, at the cost
// of serializing concurrent bridged callers. Callers that are already running
// in an asynchronous context should not use the bridge at all.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned when a bridged task does not complete before its
// deadline. The task's context is cancelled at that point, but the worker
// waits for the task function to return before starting the next task.
var ErrTimeout = fmt.Errorf("bridge: task timed out")

// PanicError wraps a panic recovered from a bridged task so it can be
// returned to the submitting goroutine instead of killing the worker.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bridge: task panicked: %v", e.Value)
}

type result struct {
	val any
	err error
}

type task struct {
	ctx  context.Context
	fn   func(context.Context) (any, error)
	done chan result
}

func (t *task) run() {
	defer func() {
		if r := recover(); r != nil {
			t.done <- result{err: &PanicError{Value: r}}
		}
	}()

	val, err := t.fn(t.ctx)
	t.done <- result{val: val, err: err}
}

var (
	startOnce sync.Once
	tasks     chan *task
)

func start() {
	tasks = make(chan *task)
	go func() {
		for t := range tasks {
			t.run()
		}
	}()
}

// Run executes fn on the shared worker goroutine and waits for the result.
//
// The context passed to fn carries the values of the submitting context,
// snapshotted at submission time, but not its cancellation; a fresh deadline
// of the given timeout is applied instead. If the deadline passes before fn
// completes, Run cancels the task context and returns ErrTimeout. The task
// function is expected to honor its context; until it returns, subsequent
// tasks remain queued.
func Run(ctx context.Context, timeout time.Duration, fn func(context.Context) (any, error)) (any, error) {
	startOnce.Do(start)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	t := &task{
		ctx: runCtx,
		fn:  fn,
		// Buffered so a timed-out task does not block the worker forever.
		done: make(chan result, 1),
	}

	select {
	case tasks <- t:
	case <-runCtx.Done():
		return nil, fmt.Errorf("%w after %s (queued)", ErrTimeout, timeout)
	}

	select {
	case res := <-t.done:
		return res.val, res.err
	case <-runCtx.Done():
		cancel()
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
