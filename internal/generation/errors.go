package generation

import "errors"

// Common errors returned by the generation package.
var (
	// ErrNoCredentials is returned when no usable credential could be
	// acquired for a dispatch slot, even after the pool's lazy cooldown
	// re-evaluation.
	ErrNoCredentials = errors.New("no usable credential available")

	// ErrRateLimited wraps a provider rate-limit or quota rejection.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrTimeout wraps a provider call that exceeded its deadline, whether
	// reported by the provider or enforced locally.
	ErrTimeout = errors.New("provider call timed out")

	// ErrInvalidCredential wraps a provider rejection of the API key itself.
	ErrInvalidCredential = errors.New("provider rejected credential")

	// ErrAllAttemptsFailed is returned when every retry and failover
	// attempt for a single call has been exhausted.
	ErrAllAttemptsFailed = errors.New("all generation attempts failed")

	// ErrInvalidConfig is returned when the client or a backend is
	// constructed with invalid configuration.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
