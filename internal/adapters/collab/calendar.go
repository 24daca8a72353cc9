// Package collab holds the external collaborator ports the dispatcher acts
// through, plus in-memory implementations used by default and in tests. The
// in-memory collaborators can simulate call latency so load drills behave
// like production integrations.
package collab

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// Calendar is the booking collaborator.
type Calendar interface {
	// CheckAvailability reports whether [start, end) is free.
	CheckAvailability(ctx context.Context, start, end time.Time) (bool, error)

	// CreateBooking reserves [start, end) for attendee. It fails with
	// ErrSlotTaken when the slot was claimed since the availability check.
	CreateBooking(ctx context.Context, attendee string, start, end time.Time) (model.Booking, error)

	// FindBookingByAttendee returns the attendee's earliest upcoming booking.
	FindBookingByAttendee(ctx context.Context, attendee string, after time.Time) (model.Booking, error)

	// CancelBooking removes the booking with the given external ref.
	CancelBooking(ctx context.Context, externalRef string) error
}

// InMemoryCalendar keeps bookings in memory with a single mutex. Availability
// and creation both take the lock, so the availability-then-create race is
// resolved at CreateBooking.
type InMemoryCalendar struct {
	mu       sync.Mutex
	bookings map[string]model.Booking

	minLatency time.Duration
	maxLatency time.Duration
}

// NewInMemoryCalendar creates an empty calendar.
func NewInMemoryCalendar(opts ...CalendarOption) *InMemoryCalendar {
	c := &InMemoryCalendar{bookings: make(map[string]model.Booking)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAvailability reports whether [start, end) overlaps no booking.
func (c *InMemoryCalendar) CheckAvailability(ctx context.Context, start, end time.Time) (bool, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.overlapsLocked(start, end), nil
}

// CreateBooking reserves [start, end) for attendee.
func (c *InMemoryCalendar) CreateBooking(ctx context.Context, attendee string, start, end time.Time) (model.Booking, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return model.Booking{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.overlapsLocked(start, end) {
		return model.Booking{}, ErrSlotTaken
	}
	booking := model.Booking{
		ExternalRef: uuid.New().String(),
		Attendee:    attendee,
		SlotStart:   start,
		SlotEnd:     end,
	}
	c.bookings[booking.ExternalRef] = booking
	return booking, nil
}

// FindBookingByAttendee returns attendee's earliest booking starting at or
// after the given time.
func (c *InMemoryCalendar) FindBookingByAttendee(ctx context.Context, attendee string, after time.Time) (model.Booking, error) {
	if err := c.simulateLatency(ctx); err != nil {
		return model.Booking{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var found model.Booking
	for _, b := range c.bookings {
		if b.Attendee != attendee || b.SlotStart.Before(after) {
			continue
		}
		if found.ExternalRef == "" || b.SlotStart.Before(found.SlotStart) {
			found = b
		}
	}
	if found.ExternalRef == "" {
		return model.Booking{}, ErrBookingNotFound
	}
	return found, nil
}

// CancelBooking removes the booking with the given ref.
func (c *InMemoryCalendar) CancelBooking(ctx context.Context, externalRef string) error {
	if err := c.simulateLatency(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.bookings[externalRef]; !ok {
		return ErrBookingNotFound
	}
	delete(c.bookings, externalRef)
	return nil
}

func (c *InMemoryCalendar) overlapsLocked(start, end time.Time) bool {
	for _, b := range c.bookings {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (c *InMemoryCalendar) simulateLatency(ctx context.Context) error {
	if c.maxLatency <= 0 {
		return nil
	}
	d := c.minLatency
	if span := c.maxLatency - c.minLatency; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
