package collab

import "time"

// CalendarOption applies a configuration option to the InMemoryCalendar.
type CalendarOption func(*InMemoryCalendar)

// WithCalendarLatency makes each calendar call sleep a random duration in
// [min, max), approximating a remote calendar API.
func WithCalendarLatency(min, max time.Duration) CalendarOption {
	return func(c *InMemoryCalendar) {
		if min >= 0 && max > min {
			c.minLatency = min
			c.maxLatency = max
		}
	}
}
