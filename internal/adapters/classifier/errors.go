package classifier

import "errors"

var (
	// ErrOracle indicates the classification oracle returned a non-OK status.
	ErrOracle = errors.New("classifier oracle error")
)
