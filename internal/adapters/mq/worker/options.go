// Package worker runs the asynchronous dispatch loop.
package worker

import (
	"time"

	"github.com/frontdesk-labs/frontdesk/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithDispatchDeadline bounds how long one event may spend in dispatch.
func WithDispatchDeadline(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.deadline = d
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if log != nil {
			w.logger = log
		}
	}
}
