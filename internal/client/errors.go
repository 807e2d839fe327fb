package client

import "errors"

// Sentinel errors shared across provider adapters.
var (
	// ErrProviderUnavailable indicates the provider binary could not be located.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates a direct-API call was rejected for exceeding
	// rate limits. Callers should treat this as retryable.
	ErrRateLimited = errors.New("provider rate limited")
)

// IsRateLimited reports whether err (or any error it wraps) is ErrRateLimited.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
