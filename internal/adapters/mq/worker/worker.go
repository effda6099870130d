// Package worker turns change notifications into debounced snapshot refreshes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/kpiboard/internal/adapters/mq/queue"
	"github.com/okian/kpiboard/internal/adapters/repository"
	"github.com/okian/kpiboard/pkg/logger"
	"github.com/okian/kpiboard/pkg/metrics"
)

const defaultDebounce = 500 * time.Millisecond

// Refresher rebuilds the published snapshot from upstream.
//
// A call that starts while another is in flight supersedes it; the older
// call returns repository.ErrStaleSnapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Queue defines how the worker receives changes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Change
}

// Worker consumes changes until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for running refreshes.
	Shutdown(ctx context.Context) error
}

// RefreshWorker coalesces bursts of changes into one refresh per quiet period.
type RefreshWorker struct {
	queue     Queue
	refresher Refresher
	name      string
	debounce  time.Duration

	inflight sync.WaitGroup

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewRefreshWorker creates a worker reading from q and refreshing through r.
func NewRefreshWorker(q Queue, r Refresher, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:     q,
		refresher: r,
		name:      "refresh-worker",
		debounce:  defaultDebounce,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop. Changes arriving within the debounce window of
// each other produce a single refresh.
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		w.inflight.Wait()
	}()

	changes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case c, ok := <-changes:
			if !ok {
				if pending > 0 {
					w.trigger(ctx, pending)
				}
				return
			}
			metrics.RecordNotification(c.Source)
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.trigger(ctx, pending)
			pending = 0
		}
	}
}

// trigger starts a refresh without waiting for it, so a later burst can
// supersede a slow fetch.
func (w *RefreshWorker) trigger(ctx context.Context, coalesced int) {
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()

		w.logger.Debug(ctx, "refresh triggered", logger.Int("coalesced_changes", coalesced))
		err := w.refresher.Refresh(ctx)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrStaleSnapshot), errors.Is(err, context.Canceled):
			w.logger.Debug(ctx, "refresh superseded", logger.Error(err))
		default:
			metrics.RecordErrorByComponent("worker", "refresh_error")
			w.logger.Error(ctx, "refresh failed", logger.Error(err))
		}
	}()
}

// Shutdown stops the worker loop and waits for in-flight refreshes.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
