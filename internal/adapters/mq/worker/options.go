// Package worker turns change notifications into debounced snapshot refreshes.
package worker

import (
	"time"

	"github.com/okian/kpiboard/pkg/logger"
)

// Option applies a configuration option to the RefreshWorker.
type Option func(*RefreshWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RefreshWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *RefreshWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the quiet period that must follow the last change
// before a refresh starts. Zero refreshes on every change.
func WithDebounce(d time.Duration) Option {
	return func(w *RefreshWorker) {
		if d >= 0 {
			w.debounce = d
		}
	}
}
