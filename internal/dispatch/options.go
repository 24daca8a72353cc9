package dispatch

import (
	"time"

	"github.com/frontdesk-labs/frontdesk/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithMinConfidence sets the confidence floor below which any classification
// is treated as unknown.
func WithMinConfidence(min float64) Option {
	return func(d *Dispatcher) {
		if min >= 0 && min <= 1 {
			d.minConfidence = min
		}
	}
}

// WithFAQThreshold sets the minimum knowledge base score for answering a
// question instead of escalating it.
func WithFAQThreshold(min float64) Option {
	return func(d *Dispatcher) {
		if min >= 0 && min <= 1 {
			d.faqThreshold = min
		}
	}
}

// WithBookingDuration sets the length of every created booking slot.
func WithBookingDuration(dur time.Duration) Option {
	return func(d *Dispatcher) {
		if dur > 0 {
			d.bookingDuration = dur
		}
	}
}

// WithLocation sets the timezone assumed for slot times when the caller does
// not name one.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithClock overrides the dispatcher clock.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}
