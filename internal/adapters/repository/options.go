package repository

import (
	"time"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/logger"
)

type sourceOptions struct {
	defaultAttendanceTarget float64
}

func defaultSourceOptions() sourceOptions {
	return sourceOptions{defaultAttendanceTarget: model.DefaultAttendanceTarget}
}

// SourceOption configures a Postgres or SQLite source.
type SourceOption func(*sourceOptions)

// WithDefaultAttendanceTarget sets the attendance goal used when a target
// row has none.
func WithDefaultAttendanceTarget(days float64) SourceOption {
	return func(o *sourceOptions) {
		if days > 0 {
			o.defaultAttendanceTarget = days
		}
	}
}

// RefresherOption configures a SnapshotRefresher.
type RefresherOption func(*SnapshotRefresher)

// WithHistoryMonths limits fetched target rows to the last n months,
// the current one included. Zero fetches everything.
func WithHistoryMonths(n int) RefresherOption {
	return func(r *SnapshotRefresher) {
		if n >= 0 {
			r.historyMonths = n
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *SnapshotRefresher) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRefresherLogger sets the refresher logger.
func WithRefresherLogger(l logger.Logger) RefresherOption {
	return func(r *SnapshotRefresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the listener logger.
func WithListenerLogger(l logger.Logger) ListenerOption {
	return func(ln *Listener) {
		if l != nil {
			ln.logger = l
		}
	}
}

// WithReconnectBackoff sets the first and maximum delay between reconnects.
func WithReconnectBackoff(initial, maxDelay time.Duration) ListenerOption {
	return func(ln *Listener) {
		if initial > 0 {
			ln.backoffInitial = initial
		}
		if maxDelay >= ln.backoffInitial {
			ln.backoffMax = maxDelay
		}
	}
}
