package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrConnect = errors.New("database connect failed")
	ErrSchema  = errors.New("schema bootstrap failed")
)
