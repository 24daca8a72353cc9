package service

import (
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of dispatch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDatabaseURL selects the durable Postgres admission store.
func WithDatabaseURL(url string) Option {
	return func(s *Service) {
		s.databaseURL = url
	}
}

// WithStaleAfter sets how long a non-terminal record blocks its event id.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClassifierURL points dispatch at an HTTP classification oracle.
// Empty keeps the built-in keyword rules classifier.
func WithClassifierURL(url string) Option {
	return func(s *Service) {
		s.classifierURL = url
	}
}

// WithClassifierTimeout bounds each oracle call.
func WithClassifierTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.classifierTimeout = d
		}
	}
}

// WithMinConfidence sets the classification confidence floor.
func WithMinConfidence(min float64) Option {
	return func(s *Service) {
		if min >= 0 && min <= 1 {
			s.minConfidence = min
		}
	}
}

// WithFAQThreshold sets the knowledge base answer threshold.
func WithFAQThreshold(min float64) Option {
	return func(s *Service) {
		if min >= 0 && min <= 1 {
			s.faqThreshold = min
		}
	}
}

// WithBookingDuration sets the booking slot length.
func WithBookingDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.bookingDuration = d
		}
	}
}

// WithTimezone sets the IANA zone assumed for slot times.
func WithTimezone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.timezone = tz
		}
	}
}

// WithDispatchDeadline bounds one event's time in dispatch.
func WithDispatchDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dispatchDeadline = d
		}
	}
}

// WithCalendarLatencyRange sets the simulated calendar API latency range.
func WithCalendarLatencyRange(min, max time.Duration) Option {
	return func(s *Service) {
		if min >= 0 && max > min {
			s.calendarMinLatency = min
			s.calendarMaxLatency = max
		}
	}
}

// WithStore injects an admission store, bypassing store selection. Used by
// tests and drills.
func WithStore(store admission.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier injects a response notifier.
func WithNotifier(n collab.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithCalendar injects a calendar collaborator.
func WithCalendar(c collab.Calendar) Option {
	return func(s *Service) {
		if c != nil {
			s.calendar = c
		}
	}
}

// WithKnowledgeBase injects the knowledge base.
func WithKnowledgeBase(kb *collab.InMemoryKnowledgeBase) Option {
	return func(s *Service) {
		if kb != nil {
			s.knowledge = kb
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
