// Package orchestrator turns logical generation requests into sub-batch
// dispatches, covers shortfalls with bounded retry rounds, and aggregates
// per-sub-batch telemetry into per-request reports.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/generation"
)

// Defaults match the fixed sizes of the upstream system: ten questions
// per sub-batch, ten logical requests per invocation, three retry rounds.
const (
	defaultChunkSize      = 10
	defaultMaxRequests    = 10
	defaultMaxRetryRounds = 3
)

// ErrorCodeTotalFailure is the structured error code for a request that
// produced zero questions after all retries.
const ErrorCodeTotalFailure = "GENERATION_FAILED"

// Orchestration errors. Per-request generation failures are never
// surfaced here; they land in the request's own RequestResult.
var (
	ErrNoRequests       = errors.New("at least one generation request is required")
	ErrTooManyRequests  = errors.New("too many generation requests")
	ErrInvalidGenerator = errors.New("generator cannot be nil")
)

// Config tunes the orchestrator.
type Config struct {
	// ChunkSize is the maximum question count per sub-batch.
	ChunkSize int

	// MaxRequests caps the number of logical requests per Run call.
	MaxRequests int

	// MaxRetryRounds bounds the sequential shortfall retries per request.
	MaxRetryRounds int
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = defaultMaxRequests
	}
	if c.MaxRetryRounds <= 0 {
		c.MaxRetryRounds = defaultMaxRetryRounds
	}
}

// Orchestrator drives the split/dispatch/retry/finalize cycle over a
// Generator. It holds no mutable state between Run calls.
type Orchestrator struct {
	gen    generation.Generator
	cfg    Config
	logger *slog.Logger

	now func() time.Time
}

// New creates an orchestrator. Zero config fields take the defaults.
func New(gen generation.Generator, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if gen == nil {
		return nil, ErrInvalidGenerator
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	cfg.applyDefaults()

	return &Orchestrator{
		gen:    gen,
		cfg:    cfg,
		logger: logger.With("component", "orchestrator"),
		now:    time.Now,
	}, nil
}

// subBatch is one dispatch unit: a bounded slice of one request's target.
type subBatch struct {
	requestIndex int
	seq          int // 1-based within the parent request
	count        int
}

// Run processes the given requests to completion. The returned slice is
// index-aligned with the input; a request that failed completely is
// reported inside its own RequestResult, never as a Run error. Run errors
// only on invalid input.
func (o *Orchestrator) Run(ctx context.Context, requests []domain.GenerationRequest) ([]domain.RequestResult, error) {
	if len(requests) == 0 {
		return nil, ErrNoRequests
	}
	if len(requests) > o.cfg.MaxRequests {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyRequests, len(requests), o.cfg.MaxRequests)
	}
	for i, req := range requests {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
	}

	subs := o.split(requests)

	// All sub-batches across all requests go out in one batch dispatch so a
	// slow request cannot starve an unrelated one.
	params := make([]generation.Params, len(subs))
	for i, sb := range subs {
		params[i] = toParams(requests[sb.requestIndex], sb.count)
	}
	outcomes := o.gen.GenerateBatch(ctx, params)

	results := make([]domain.RequestResult, len(requests))
	for i := range requests {
		results[i] = o.assemble(ctx, i, requests[i], subs, outcomes)
	}
	return results, nil
}

// split computes each request's sub-batches: full chunks plus a final
// remainder chunk. Sequence numbers start at 1 per request.
func (o *Orchestrator) split(requests []domain.GenerationRequest) []subBatch {
	var subs []subBatch
	for i, req := range requests {
		remaining := req.TargetCount
		for seq := 1; remaining > 0; seq++ {
			count := o.cfg.ChunkSize
			if remaining < count {
				count = remaining
			}
			subs = append(subs, subBatch{requestIndex: i, seq: seq, count: count})
			remaining -= count
		}
	}
	return subs
}

// assemble collects one request's sub-batch outcomes in sequence order,
// runs shortfall retries, and finalizes the result.
func (o *Orchestrator) assemble(ctx context.Context, idx int, req domain.GenerationRequest, subs []subBatch, outcomes []generation.Outcome) domain.RequestResult {
	report := domain.GenerationReport{
		RequestIndex:   idx,
		TotalRequested: req.TargetCount,
		GeneratedAt:    o.now(),
	}

	var produced []domain.Question
	for flat, sb := range subs {
		if sb.requestIndex != idx {
			continue
		}
		label := strconv.Itoa(sb.seq)
		tel := domain.BatchTelemetry{BatchLabel: label, RequestedCount: sb.count}

		out := outcomes[flat]
		if out.Err != nil {
			tel.Error = out.Err.Error()
			report.Batches = append(report.Batches, tel)
			continue
		}

		tel.GeneratedCount = len(out.Result.Questions)
		tel.InputTokens = out.Result.Usage.InputTokens
		tel.OutputTokens = out.Result.Usage.OutputTokens
		tel.TotalTokens = out.Result.Usage.TotalTokens
		tel.Duration = out.Result.Duration
		report.Batches = append(report.Batches, tel)

		produced = append(produced, tagged(out.Result.Questions, label)...)
	}

	produced = o.retryShortfall(ctx, req, produced, &report)

	return o.finalize(req, produced, report)
}

// retryShortfall issues up to MaxRetryRounds single-call retries for the
// outstanding shortfall. A round that errors or yields zero questions
// ends retrying early; either way the round is recorded in telemetry.
func (o *Orchestrator) retryShortfall(ctx context.Context, req domain.GenerationRequest, produced []domain.Question, report *domain.GenerationReport) []domain.Question {
	for round := 1; round <= o.cfg.MaxRetryRounds; round++ {
		shortfall := req.TargetCount - len(produced)
		if shortfall <= 0 {
			break
		}

		label := "retry_" + strconv.Itoa(round)
		tel := domain.BatchTelemetry{BatchLabel: label, RequestedCount: shortfall}

		res, err := o.gen.Generate(ctx, toParams(req, shortfall))
		if err != nil {
			tel.Error = err.Error()
			report.Batches = append(report.Batches, tel)
			o.logger.WarnContext(ctx, "retry round failed",
				"request_index", report.RequestIndex, "round", round, "error", err)
			break
		}

		tel.GeneratedCount = len(res.Questions)
		tel.InputTokens = res.Usage.InputTokens
		tel.OutputTokens = res.Usage.OutputTokens
		tel.TotalTokens = res.Usage.TotalTokens
		tel.Duration = res.Duration
		report.Batches = append(report.Batches, tel)

		if len(res.Questions) == 0 {
			break
		}
		produced = append(produced, tagged(res.Questions, label)...)
	}
	return produced
}

// finalize renumbers the collected questions in arrival order, splits
// surplus into audit-only overflow, and builds the caller-visible result.
// A shortfall is a valid partial outcome; only zero production is an
// error.
func (o *Orchestrator) finalize(req domain.GenerationRequest, produced []domain.Question, report domain.GenerationReport) domain.RequestResult {
	report.TotalProduced = len(produced)

	for i := range produced {
		produced[i].Number = i + 1
	}

	used := produced
	var overflow []domain.Question
	if len(produced) > req.TargetCount {
		used = produced[:req.TargetCount]
		overflow = produced[req.TargetCount:]
	}
	for i := range used {
		used[i].IsUsed = true
	}
	for i := range overflow {
		overflow[i].IsUsed = false
	}

	result := domain.RequestResult{
		Succeeded: len(produced) > 0,
		Questions: used,
		Overflow:  overflow,
		Report:    report,
	}
	if len(produced) == 0 {
		result.Questions = nil
		result.Error = &domain.ErrorDetail{
			Code:    ErrorCodeTotalFailure,
			Message: "no questions were generated after all retries",
			Details: lastBatchError(report.Batches),
		}
	}
	return result
}

// lastBatchError surfaces the most recent telemetry error string, if any.
func lastBatchError(batches []domain.BatchTelemetry) string {
	for i := len(batches) - 1; i >= 0; i-- {
		if batches[i].Error != "" {
			return batches[i].Error
		}
	}
	return ""
}

// tagged stamps the originating sub-batch label on each question.
func tagged(questions []domain.Question, label string) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	for i := range out {
		out[i].BatchLabel = label
	}
	return out
}

func toParams(req domain.GenerationRequest, count int) generation.Params {
	return generation.Params{
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Count:        count,
		Attachments:  req.Attachments,
		Tuning:       req.Tuning,
	}
}
