package dispatch

import "errors"

var (
	// ErrMissingSlots indicates the classified fields lack a slot the
	// handler needs. Handlers map it to a clarification response.
	ErrMissingSlots = errors.New("missing required slots")

	// ErrNoExistingBooking indicates a cancel or reschedule found no
	// upcoming booking for the caller.
	ErrNoExistingBooking = errors.New("no existing booking")
)
