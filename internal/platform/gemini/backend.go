package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/edugen/examgen-api/internal/generation"
)

// Default sampling parameters, applied when the request carries no tuning.
const (
	defaultTemperature = float32(0.7)
	defaultTopP        = float32(0.95)
	defaultTopK        = float32(40)
)

// Backend calls the Gemini API. A fresh SDK client is created per call
// because the credential is chosen per call by the pool, while the SDK
// binds the API key at client construction.
type Backend struct {
	model  string
	logger *slog.Logger
}

// New creates a Gemini backend for the given model ID.
func New(model string, logger *slog.Logger) (*Backend, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	return &Backend{
		model:  model,
		logger: logger.With("component", "gemini_backend", "model", model),
	}, nil
}

// Name implements generation.Backend.
func (b *Backend) Name() string { return "gemini" }

// Invoke implements generation.Backend. It requests JSON output
// constrained by the question envelope schema and returns the raw text
// for the caller to decode.
func (b *Backend) Invoke(ctx context.Context, apiKey string, p generation.Params) (*generation.CallResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	applyTuning(cfg, p)

	if p.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: p.SystemPrompt}},
		}
	}

	parts := []*genai.Part{{Text: p.UserPrompt}}
	for _, att := range p.Attachments {
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{
				FileURI:  att.URI,
				MIMEType: att.MIMEType,
			},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	result, err := client.Models.GenerateContent(ctx, b.model, contents, cfg)
	if err != nil {
		return nil, mapError(err)
	}

	out := &generation.CallResult{RawText: result.Text()}
	if result.UsageMetadata != nil {
		out.Usage = generation.Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// applyTuning sets sampling parameters, preferring per-request overrides
// over the defaults.
func applyTuning(cfg *genai.GenerateContentConfig, p generation.Params) {
	temp, topP, topK := defaultTemperature, defaultTopP, defaultTopK
	if t := p.Tuning; t != nil {
		if t.Temperature != nil {
			temp = float32(*t.Temperature)
		}
		if t.TopP != nil {
			topP = float32(*t.TopP)
		}
		if t.TopK != nil {
			topK = float32(*t.TopK)
		}
	}
	cfg.Temperature = &temp
	cfg.TopP = &topP
	cfg.TopK = &topK
}

// mapError converts a Gemini SDK error into the generation package's
// sentinel vocabulary so classification does not depend on message text.
func mapError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", generation.ErrRateLimited, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", generation.ErrInvalidCredential, err)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	}
	return fmt.Errorf("gemini call failed: %w", err)
}
