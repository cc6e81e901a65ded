package generation

import (
	"context"
	"time"

	"github.com/edugen/examgen-api/internal/domain"
)

// Params describes one provider call: rendered prompts, the number of
// questions to request, optional attachment references, and optional
// sampling parameters.
type Params struct {
	SystemPrompt string
	UserPrompt   string
	Count        int
	Attachments  []domain.Attachment
	Tuning       *domain.Tuning
}

// Usage reports token consumption for one provider call. All counts are
// zero when the provider did not report usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// CallResult is the raw outcome of a single provider invocation, before
// decoding. RawText is expected to be JSON per the structured-output
// contract but is not guaranteed to be well formed.
type CallResult struct {
	RawText string
	Usage   Usage
}

// Backend is the vendor-specific capability: one call against one
// credential, no retries, no rotation. Implementations must respect ctx
// cancellation and return errors mappable by Classify.
type Backend interface {
	// Invoke performs a single generation call using the given API key.
	Invoke(ctx context.Context, apiKey string, p Params) (*CallResult, error)

	// Name returns the provider identifier, e.g. "gemini".
	Name() string
}

// Result is one decoded generation outcome: the validated questions that
// survived decoding plus call telemetry.
type Result struct {
	Questions []domain.Question
	Usage     Usage
	Duration  time.Duration
}

// Outcome is one element of a batch dispatch. Exactly one of Result and
// Err is set; a failed item never fails its group.
type Outcome struct {
	Result *Result
	Err    error
}

// Generator is the behavioral contract the orchestrator depends on.
type Generator interface {
	// Generate produces questions for a single request, rotating and
	// racing credentials as configured. An empty question list with a nil
	// error is a valid outcome (decode failures are absorbed).
	Generate(ctx context.Context, p Params) (*Result, error)

	// GenerateBatch dispatches many requests concurrently, bounded by the
	// configured parallelism and the number of available credentials.
	// Outcomes are returned in input order.
	GenerateBatch(ctx context.Context, params []Params) []Outcome
}
