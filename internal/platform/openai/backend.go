// Package openai implements the generation.Backend contract against the
// OpenAI chat completions API via structured JSON-schema output.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/edugen/examgen-api/internal/generation"
)

const defaultTemperature = float32(0.7)

// Backend calls the OpenAI API. A fresh SDK client is created per call
// because the credential is chosen per call by the pool.
type Backend struct {
	model  string
	logger *slog.Logger
}

// New creates an OpenAI backend for the given model ID.
func New(model string, logger *slog.Logger) (*Backend, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	return &Backend{
		model:  model,
		logger: logger.With("component", "openai_backend", "model", model),
	}, nil
}

// Name implements generation.Backend.
func (b *Backend) Name() string { return "openai" }

// Invoke implements generation.Backend. File attachments are not
// supported by the chat completions transport used here; they are logged
// and skipped rather than failing the call.
func (b *Backend) Invoke(ctx context.Context, apiKey string, p generation.Params) (*generation.CallResult, error) {
	if len(p.Attachments) > 0 {
		b.logger.WarnContext(ctx, "attachments are not supported, skipping",
			"attachment_count", len(p.Attachments))
	}

	client := goopenai.NewClientWithConfig(goopenai.DefaultConfig(apiKey))

	var messages []goopenai.ChatCompletionMessage
	if p.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: p.SystemPrompt,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: p.UserPrompt,
	})

	temp := defaultTemperature
	if p.Tuning != nil && p.Tuning.Temperature != nil {
		temp = float32(*p.Tuning.Temperature)
	}

	req := goopenai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: temp,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   "question_envelope",
				Schema: json.RawMessage(envelopeSchemaJSON),
				Strict: true,
			},
		},
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai response contained no choices")
	}

	return &generation.CallResult{
		RawText: resp.Choices[0].Message.Content,
		Usage: generation.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

// mapError converts an OpenAI SDK error into the generation package's
// sentinel vocabulary.
func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
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
	return fmt.Errorf("openai call failed: %w", err)
}
