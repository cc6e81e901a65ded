package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/generation"
)

// stubGenerator scripts batch and single-call behavior per test.
type stubGenerator struct {
	mu            sync.Mutex
	batchFn       func(params []generation.Params) []generation.Outcome
	generateFn    func(p generation.Params) (*generation.Result, error)
	batchParams   []generation.Params
	generateCalls []generation.Params
}

func (s *stubGenerator) Generate(_ context.Context, p generation.Params) (*generation.Result, error) {
	s.mu.Lock()
	s.generateCalls = append(s.generateCalls, p)
	s.mu.Unlock()
	if s.generateFn == nil {
		return &generation.Result{}, nil
	}
	return s.generateFn(p)
}

func (s *stubGenerator) GenerateBatch(_ context.Context, params []generation.Params) []generation.Outcome {
	s.mu.Lock()
	s.batchParams = params
	s.mu.Unlock()
	if s.batchFn == nil {
		out := make([]generation.Outcome, len(params))
		for i := range params {
			out[i] = generation.Outcome{Result: &generation.Result{Questions: makeQuestions(params[i].Count)}}
		}
		return out
	}
	return s.batchFn(params)
}

// makeQuestions builds n valid questions without numbering; the
// orchestrator owns numbering.
func makeQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			Text: domain.QuestionText{Text: fmt.Sprintf("stem %d", i+1)},
			Choices: []domain.Choice{
				{Number: 1, Text: "a"}, {Number: 2, Text: "b"},
				{Number: 3, Text: "c"}, {Number: 4, Text: "d"},
			},
			CorrectAnswer: "1",
			Explanation:   "because",
			PassageInfo:   domain.PassageInfo{SourceType: domain.SourceTypeNone},
		}
	}
	return out
}

func makeRequest(target int) domain.GenerationRequest {
	return domain.GenerationRequest{
		TargetCount:  target,
		SystemPrompt: "You write exam questions.",
		UserPrompt:   "Generate questions about tides.",
	}
}

func newTestOrchestrator(t *testing.T, gen generation.Generator, cfg Config) *Orchestrator {
	t.Helper()
	o, err := New(gen, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	o.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(nil, Config{}, logger)
	assert.ErrorIs(t, err, ErrInvalidGenerator)

	_, err = New(&stubGenerator{}, Config{}, nil)
	assert.Error(t, err)
}

func TestRun_InputValidation(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, &stubGenerator{}, Config{})
	ctx := context.Background()

	_, err := o.Run(ctx, nil)
	assert.ErrorIs(t, err, ErrNoRequests)

	many := make([]domain.GenerationRequest, 11)
	for i := range many {
		many[i] = makeRequest(5)
	}
	_, err = o.Run(ctx, many)
	assert.ErrorIs(t, err, ErrTooManyRequests)

	_, err = o.Run(ctx, []domain.GenerationRequest{{TargetCount: 5}})
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
}

func TestRun_SplitsIntoChunks(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	o := newTestOrchestrator(t, gen, Config{})

	results, err := o.Run(context.Background(), []domain.GenerationRequest{makeRequest(25)})
	require.NoError(t, err)
	require.Len(t, results, 1)

	counts := make([]int, len(gen.batchParams))
	for i, p := range gen.batchParams {
		counts[i] = p.Count
	}
	assert.Equal(t, []int{10, 10, 5}, counts)

	report := results[0].Report
	require.Len(t, report.Batches, 3)
	assert.Equal(t, "1", report.Batches[0].BatchLabel)
	assert.Equal(t, "2", report.Batches[1].BatchLabel)
	assert.Equal(t, "3", report.Batches[2].BatchLabel)
	assert.Equal(t, 25, report.TotalProduced)
	assert.Zero(t, report.Shortfall())
}

func TestRun_RetryCoversShortfall(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{
		batchFn: func(params []generation.Params) []generation.Outcome {
			// Single sub-batch of 10 yields only 7.
			return []generation.Outcome{{Result: &generation.Result{Questions: makeQuestions(7)}}}
		},
		generateFn: func(p generation.Params) (*generation.Result, error) {
			return &generation.Result{Questions: makeQuestions(p.Count)}, nil
		},
	}
	o := newTestOrchestrator(t, gen, Config{})

	results, err := o.Run(context.Background(), []domain.GenerationRequest{makeRequest(10)})
	require.NoError(t, err)

	res := results[0]
	assert.True(t, res.Succeeded)
	require.Len(t, res.Questions, 10)
	for i, q := range res.Questions {
		assert.True(t, q.IsUsed)
		assert.Equal(t, i+1, q.Number)
	}
	assert.Empty(t, res.Overflow)

	require.Len(t, gen.generateCalls, 1)
	assert.Equal(t, 3, gen.generateCalls[0].Count)

	require.Len(t, res.Report.Batches, 2)
	retry := res.Report.Batches[1]
	assert.Equal(t, "retry_1", retry.BatchLabel)
	assert.Equal(t, 3, retry.RequestedCount)
	assert.Equal(t, 3, retry.GeneratedCount)

	// Questions carry their originating sub-batch label.
	assert.Equal(t, "1", res.Questions[0].BatchLabel)
	assert.Equal(t, "retry_1", res.Questions[9].BatchLabel)
}

func TestRun_OverflowRetainedUnused(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{
		batchFn: func(params []generation.Params) []generation.Outcome {
			return []generation.Outcome{{Result: &generation.Result{Questions: makeQuestions(12)}}}
		},
	}
	o := newTestOrchestrator(t, gen, Config{})

	results, err := o.Run(context.Background(), []domain.GenerationRequest{makeRequest(10)})
	require.NoError(t, err)

	res := results[0]
	require.Len(t, res.Questions, 10)
	require.Len(t, res.Overflow, 2)
	for i, q := range res.Questions {
		assert.True(t, q.IsUsed)
		assert.Equal(t, i+1, q.Number)
	}
	assert.False(t, res.Overflow[0].IsUsed)
	assert.False(t, res.Overflow[1].IsUsed)
	assert.Equal(t, 11, res.Overflow[0].Number)
	assert.Equal(t, 12, res.Overflow[1].Number)
	assert.Equal(t, 12, res.Report.TotalProduced)
	assert.Empty(t, gen.generateCalls)
}

func TestRun_ZeroYieldRoundStopsRetrying(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{
		batchFn: func(params []generation.Params) []generation.Outcome {
			return []generation.Outcome{{Result: &generation.Result{Questions: makeQuestions(4)}}}
		},
		generateFn: func(p generation.Params) (*generation.Result, error) {
			return &generation.Result{}, nil
		},
	}
	o := newTestOrchestrator(t, gen, Config{})

	results, err := o.Run(context.Background(), []domain.GenerationRequest{makeRequest(10)})
	require.NoError(t, err)

	// One zero-yield round ends retrying; rounds two and three never run.
	assert.Len(t, gen.generateCalls, 1)

	res := results[0]
	assert.True(t, res.Succeeded)
	assert.Len(t, res.Questions, 4)
	assert.Nil(t, res.Error)
	assert.Equal(t, 6, res.Report.Shortfall())
	require.Len(t, res.Report.Batches, 2)
	assert.Equal(t, 0, res.Report.Batches[1].GeneratedCount)
}

func TestRun_TotalFailureIsIsolated(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{
		batchFn: func(params []generation.Params) []generation.Outcome {
			out := make([]generation.Outcome, len(params))
			for i, p := range params {
				if p.UserPrompt == "doomed" {
					out[i] = generation.Outcome{Err: errors.New("429 rate limit exceeded")}
					continue
				}
				out[i] = generation.Outcome{Result: &generation.Result{Questions: makeQuestions(p.Count)}}
			}
			return out
		},
		generateFn: func(p generation.Params) (*generation.Result, error) {
			return nil, errors.New("429 rate limit exceeded")
		},
	}
	o := newTestOrchestrator(t, gen, Config{})

	doomed := makeRequest(5)
	doomed.UserPrompt = "doomed"

	results, err := o.Run(context.Background(), []domain.GenerationRequest{doomed, makeRequest(5)})
	require.NoError(t, err)
	require.Len(t, results, 2)

	failed := results[0]
	assert.False(t, failed.Succeeded)
	assert.Empty(t, failed.Questions)
	require.NotNil(t, failed.Error)
	assert.Equal(t, ErrorCodeTotalFailure, failed.Error.Code)
	assert.Contains(t, failed.Error.Details, "rate limit")

	// The sibling request is untouched by its neighbor's failure.
	healthy := results[1]
	assert.True(t, healthy.Succeeded)
	assert.Len(t, healthy.Questions, 5)
	assert.Nil(t, healthy.Error)
}

func TestRun_CrossRequestFlattening(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	o := newTestOrchestrator(t, gen, Config{})

	results, err := o.Run(context.Background(), []domain.GenerationRequest{
		makeRequest(15),
		makeRequest(5),
	})
	require.NoError(t, err)

	// One flattened dispatch: [10, 5] for the first request, [5] for the second.
	counts := make([]int, len(gen.batchParams))
	for i, p := range gen.batchParams {
		counts[i] = p.Count
	}
	assert.Equal(t, []int{10, 5, 5}, counts)

	assert.Len(t, results[0].Questions, 15)
	assert.Len(t, results[1].Questions, 5)
	assert.Equal(t, 0, results[0].Report.RequestIndex)
	assert.Equal(t, 1, results[1].Report.RequestIndex)
	require.Len(t, results[1].Report.Batches, 1)
	assert.Equal(t, "1", results[1].Report.Batches[0].BatchLabel)
}

func TestRun_PartialFulfillmentIsNotAnError(t *testing.T) {
	t.Parallel()

	round := 0
	gen := &stubGenerator{
		batchFn: func(params []generation.Params) []generation.Outcome {
			return []generation.Outcome{{Result: &generation.Result{Questions: makeQuestions(4)}}}
		},
		generateFn: func(p generation.Params) (*generation.Result, error) {
			round++
			if round == 1 {
				return &generation.Result{Questions: makeQuestions(2)}, nil
			}
			return &generation.Result{}, nil
		},
	}
	o := newTestOrchestrator(t, gen, Config{})

	results, err := o.Run(context.Background(), []domain.GenerationRequest{makeRequest(10)})
	require.NoError(t, err)

	res := results[0]
	assert.True(t, res.Succeeded)
	assert.Len(t, res.Questions, 6)
	assert.Nil(t, res.Error)
	assert.Equal(t, 4, res.Report.Shortfall())
	assert.Len(t, gen.generateCalls, 2)
}
