package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/edugen/examgen-api/internal/credential"
)

// Classify maps a provider error to a credential failure kind. Typed
// sentinel errors (wrapped by the backends from vendor error codes) are
// checked first; the substring vocabulary is the fallback for providers
// that only surface message text.
func Classify(err error) credential.FailureKind {
	if err == nil {
		return credential.FailureUnclassified
	}

	switch {
	case errors.Is(err, ErrRateLimited):
		return credential.FailureRateLimit
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return credential.FailureTimeout
	case errors.Is(err, ErrInvalidCredential):
		return credential.FailureInvalidKey
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource exhausted"):
		return credential.FailureRateLimit
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return credential.FailureTimeout
	case strings.Contains(msg, "api key"),
		strings.Contains(msg, "permission"):
		return credential.FailureInvalidKey
	default:
		return credential.FailureUnclassified
	}
}
