package normalize

import "errors"

// Sentinel kinds for normalization errors. Missing transcript and missing
// provider id are terminal, non-retryable conditions.
var (
	ErrMissingTranscript  = errors.New("missing transcript")
	ErrMissingProviderID  = errors.New("missing provider id")
	ErrUnsupportedChannel = errors.New("unsupported channel")
)
