package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/kpiboard/internal/adapters/mq/queue"
	worker "github.com/okian/kpiboard/internal/adapters/mq/worker"
	"github.com/okian/kpiboard/internal/adapters/repository"
	logging "github.com/okian/kpiboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	changes chan queue.Change
	once    sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{changes: make(chan queue.Change, 64)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Change {
	return mq.changes
}

func (mq *mockQueue) add(id string) {
	mq.changes <- queue.Change{ID: id, Source: "test", At: time.Now()}
}

func (mq *mockQueue) close() {
	mq.once.Do(func() { close(mq.changes) })
}

type mockRefresher struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestRefreshWorker(t *testing.T) {
	convey.Convey("Given a refresh worker with a 30ms debounce", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		r := &mockRefresher{}
		w := worker.NewRefreshWorker(q, r,
			worker.WithName("test-worker"),
			worker.WithDebounce(30*time.Millisecond),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a burst of changes arrives", func() {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				q.add(id)
				time.Sleep(5 * time.Millisecond)
			}

			convey.Convey("Then exactly one refresh should run", func() {
				convey.So(waitFor(func() bool { return r.calls.Load() == 1 }), convey.ShouldBeTrue)
				time.Sleep(60 * time.Millisecond)
				convey.So(r.calls.Load(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When two bursts are separated by a quiet period", func() {
			q.add("a")
			convey.So(waitFor(func() bool { return r.calls.Load() == 1 }), convey.ShouldBeTrue)
			q.add("b")

			convey.Convey("Then each burst should refresh once", func() {
				convey.So(waitFor(func() bool { return r.calls.Load() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the queue closes with a change still pending", func() {
			q.add("a")
			q.close()

			convey.Convey("Then the pending change should still be refreshed", func() {
				convey.So(waitFor(func() bool { return r.calls.Load() == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then it should stop gracefully and tolerate a second call", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestRefreshWorkerErrors(t *testing.T) {
	convey.Convey("Given a refresher that fails", t, func() {
		_ = logging.Init()

		for _, err := range []error{errors.New("upstream down"), repository.ErrStaleSnapshot} {
			q := newMockQueue()
			r := &mockRefresher{err: err}
			w := worker.NewRefreshWorker(q, r, worker.WithDebounce(0))
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)

			q.add("a")
			convey.So(waitFor(func() bool { return r.calls.Load() == 1 }), convey.ShouldBeTrue)

			q.add("b")
			convey.So(waitFor(func() bool { return r.calls.Load() == 2 }), convey.ShouldBeTrue)

			cancel()
		}
	})
}

func TestRefreshWorkerCancellation(t *testing.T) {
	convey.Convey("Given a slow refresh in flight", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		r := &mockRefresher{delay: 10 * time.Second}
		w := worker.NewRefreshWorker(q, r, worker.WithDebounce(0))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		q.add("a")
		convey.So(waitFor(func() bool { return r.calls.Load() == 1 }), convey.ShouldBeTrue)

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then shutdown should wait for the refresh to unwind", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}
