package repository

import "time"

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithStaleAfter sets how long a non-terminal record may sit untouched
// before re-admission.
func WithStaleAfter(d time.Duration) MemOption {
	return func(s *MemStore) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClock overrides the time source. Used by tests to exercise staleness.
func WithClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}
