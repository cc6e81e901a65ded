package service

import (
	"fmt"
	"log/slog"

	"github.com/edugen/examgen-api/internal/config"
	"github.com/edugen/examgen-api/internal/credential"
	"github.com/edugen/examgen-api/internal/generation"
	"github.com/edugen/examgen-api/internal/platform/gemini"
	"github.com/edugen/examgen-api/internal/platform/openai"
)

// NewGenerator builds the provider-specific backend, credential pool, and
// call engine from configuration. The rest of the application only sees
// the generation.Generator contract.
func NewGenerator(cfg config.LLMConfig, logger *slog.Logger) (generation.Generator, *credential.Pool, error) {
	strategy, err := credential.ParseStrategy(cfg.RotationStrategy)
	if err != nil {
		return nil, nil, fmt.Errorf("configure credential pool: %w", err)
	}

	pool, err := credential.NewPool(cfg.APIKeys(), strategy)
	if err != nil {
		return nil, nil, fmt.Errorf("configure credential pool: %w", err)
	}

	var backend generation.Backend
	switch cfg.Provider {
	case "gemini":
		backend, err = gemini.New(cfg.ModelName, logger)
	case "openai":
		backend, err = openai.New(cfg.ModelName, logger)
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("configure %s backend: %w", cfg.Provider, err)
	}

	client, err := generation.NewClient(backend, pool, generation.ClientConfig{
		CallTimeout:        cfg.CallTimeout(),
		RetryTimeout:       cfg.RetryTimeout(),
		MaxRetries:         cfg.MaxRetries,
		MaxParallel:        cfg.MaxParallelKeys,
		EnableFastFailover: cfg.EnableFastFailover,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("configure generation client: %w", err)
	}

	return client, pool, nil
}
