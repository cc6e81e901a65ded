package domain

import (
	"encoding/json"
	"time"
)

// BatchTelemetry is the outcome record of a single sub-batch dispatch or
// retry round. Token counts are zero when the provider did not report them.
type BatchTelemetry struct {
	BatchLabel     string        `json:"batch_number"`
	RequestedCount int           `json:"requested_count"`
	GeneratedCount int           `json:"generated_count"`
	InputTokens    int           `json:"input_tokens"`
	OutputTokens   int           `json:"output_tokens"`
	TotalTokens    int           `json:"total_tokens"`
	Duration       time.Duration `json:"-"`
	Error          string        `json:"error,omitempty"`
}

// batchTelemetryAlias avoids recursion in the custom JSON methods.
type batchTelemetryAlias BatchTelemetry

// batchTelemetryJSON is the wire form: the duration is expressed in
// seconds for report consumers, not raw nanoseconds.
type batchTelemetryJSON struct {
	batchTelemetryAlias
	DurationSeconds float64 `json:"duration_seconds"`
}

// MarshalJSON serializes the telemetry with duration_seconds.
func (t BatchTelemetry) MarshalJSON() ([]byte, error) {
	return json.Marshal(batchTelemetryJSON{
		batchTelemetryAlias: batchTelemetryAlias(t),
		DurationSeconds:     t.Duration.Seconds(),
	})
}

// UnmarshalJSON restores the duration from its seconds wire form.
func (t *BatchTelemetry) UnmarshalJSON(data []byte) error {
	var wire batchTelemetryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*t = BatchTelemetry(wire.batchTelemetryAlias)
	t.Duration = time.Duration(wire.DurationSeconds * float64(time.Second))
	return nil
}

// GenerationReport aggregates the telemetry of one logical generation
// request: the ordered sub-batch records plus the produced/requested
// totals. TotalProduced counts every question that was generated,
// including surplus retained with IsUsed=false.
type GenerationReport struct {
	RequestIndex   int              `json:"request_index"`
	TotalRequested int              `json:"total_requested"`
	TotalProduced  int              `json:"total_produced"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Batches        []BatchTelemetry `json:"batches"`
}

// Shortfall returns how many questions the request is still missing after
// all dispatch and retry rounds. A positive shortfall is a valid terminal
// outcome, not an error.
func (r *GenerationReport) Shortfall() int {
	if r.TotalProduced >= r.TotalRequested {
		return 0
	}
	return r.TotalRequested - r.TotalProduced
}

// ErrorDetail is the structured per-request error surfaced to callers
// when a request produced zero questions after all retries.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RequestResult is the externally visible outcome of one logical request:
// the returned question list (exactly the used questions), the audited
// overflow, the telemetry report, and the structured error when the
// request failed completely.
type RequestResult struct {
	Succeeded bool             `json:"succeeded"`
	Questions []Question       `json:"questions"`
	Overflow  []Question       `json:"overflow,omitempty"`
	Report    GenerationReport `json:"report"`
	Error     *ErrorDetail     `json:"error,omitempty"`
}
