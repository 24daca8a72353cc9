package service

import "errors"

var (
	// ErrBackpressure indicates the event queue is full; the admission was
	// released so the provider's retry will be admitted cleanly.
	ErrBackpressure = errors.New("event queue full")
)
