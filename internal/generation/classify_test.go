package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edugen/examgen-api/internal/credential"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want credential.FailureKind
	}{
		{"nil error", nil, credential.FailureUnclassified},
		{"wrapped rate limit sentinel", fmt.Errorf("call failed: %w", ErrRateLimited), credential.FailureRateLimit},
		{"wrapped timeout sentinel", fmt.Errorf("call failed: %w", ErrTimeout), credential.FailureTimeout},
		{"context deadline", context.DeadlineExceeded, credential.FailureTimeout},
		{"wrapped invalid credential sentinel", fmt.Errorf("call failed: %w", ErrInvalidCredential), credential.FailureInvalidKey},
		{"rate limit message", errors.New("Rate Limit exceeded for model"), credential.FailureRateLimit},
		{"quota message", errors.New("daily quota exhausted"), credential.FailureRateLimit},
		{"resource exhausted message", errors.New("RESOURCE EXHAUSTED: try later"), credential.FailureRateLimit},
		{"timeout message", errors.New("request timed out"), credential.FailureTimeout},
		{"deadline message", errors.New("context deadline exceeded somewhere"), credential.FailureTimeout},
		{"api key message", errors.New("API key not valid"), credential.FailureInvalidKey},
		{"permission message", errors.New("permission denied for project"), credential.FailureInvalidKey},
		{"unknown message", errors.New("connection reset by peer"), credential.FailureUnclassified},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestClassify_SentinelBeatsMessage(t *testing.T) {
	t.Parallel()

	// A typed rate-limit error whose message mentions a timeout must still
	// classify as a rate limit.
	err := fmt.Errorf("%w: upstream timed out while checking quota", ErrRateLimited)
	assert.Equal(t, credential.FailureRateLimit, Classify(err))
}
