package collab

import "errors"

var (
	// ErrSlotTaken indicates the requested slot was claimed by another booking.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrBookingNotFound indicates no booking matched the lookup.
	ErrBookingNotFound = errors.New("booking not found")
)
