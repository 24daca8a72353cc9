package admission

import "errors"

// Sentinel kinds for admission errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)
