package poller

import (
	"context"
	"time"
)

// Task is a recurring job started by Schedule. It runs until cancelled or
// until the context it was scheduled under is done.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Schedule calls fn every interval, starting one interval from now. Calls
// never overlap: a slow fn delays the next tick instead of stacking. fn
// receives a context that is cancelled together with the task.
func Schedule(ctx context.Context, interval time.Duration, fn func(context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Both cases can be ready at once; cancellation wins.
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	return t
}

// Cancel stops the task. It does not wait for a running fn to return.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task has exited or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
