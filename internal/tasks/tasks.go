// Package tasks tracks background continuations that outlive the HTTP
// response of the request that spawned them. Deferred interaction work
// (follow-up edits, cache writes) runs here so that failures are logged
// instead of escaping on a bare goroutine, and so shutdown can wait for
// in-flight work.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tracker runs named background functions and waits for them on shutdown.
// Task contexts are detached from the originating request: the follow-up
// edit for a deferred interaction must survive the request's own context
// being cancelled once the acknowledgement is written.
type Tracker struct {
	g       errgroup.Group
	logger  *slog.Logger
	timeout time.Duration
}

// NewTracker creates a Tracker. timeout bounds every task; it should stay
// within the platform's interaction-token validity window, since an edit
// attempted after that window fails permanently anyway.
func NewTracker(logger *slog.Logger, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &Tracker{logger: logger, timeout: timeout}
}

// Go schedules fn on the tracker. Errors and panics are logged, never
// propagated: a background continuation has no caller left to report to.
func (t *Tracker) Go(name string, fn func(ctx context.Context) error) {
	t.g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("background task panicked", "task", name, "panic", fmt.Sprint(r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			t.logger.Error("background task failed", "task", name, "error", err)
		}
		return nil
	})
}

// Wait blocks until all scheduled tasks have finished. Tasks are
// individually bounded by the tracker timeout, so Wait terminates.
func (t *Tracker) Wait() {
	_ = t.g.Wait()
}

// Batch collects the continuations registered while one interaction is
// being handled. The webhook handler dispatches the batch onto the tracker
// only after the synchronous acknowledgement has been written, which keeps
// the ack-before-background ordering guarantee.
type Batch struct {
	items []batchItem
}

type batchItem struct {
	name string
	fn   func(ctx context.Context) error
}

func NewBatch() *Batch {
	return &Batch{}
}

// Add registers a continuation. It does not run until Dispatch.
func (b *Batch) Add(name string, fn func(ctx context.Context) error) {
	b.items = append(b.items, batchItem{name: name, fn: fn})
}

// Len reports the number of registered continuations.
func (b *Batch) Len() int { return len(b.items) }

// Dispatch hands every registered continuation to the tracker.
func (b *Batch) Dispatch(t *Tracker) {
	for _, it := range b.items {
		t.Go(it.name, it.fn)
	}
	b.items = nil
}
