package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/edugen/examgen-api/internal/config"
	"github.com/edugen/examgen-api/internal/credential"
	"github.com/edugen/examgen-api/internal/generation"
	"github.com/edugen/examgen-api/internal/notify"
	"github.com/edugen/examgen-api/internal/orchestrator"
	"github.com/edugen/examgen-api/internal/platform/postgres"
	"github.com/edugen/examgen-api/internal/service"
	"github.com/edugen/examgen-api/internal/task"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	generator generation.Generator
	pool      *credential.Pool
	notifier  notify.Notifier

	generationService service.GenerationService

	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool
}

// newApplication creates a new application instance with all dependencies
// initialized. Configuration, logging, and the database connection must
// already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.generator, app.pool, err = service.NewGenerator(cfg.LLM, logger.With("component", "llm_backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	logger.Info("generation client initialized",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.ModelName,
		"credentials", app.pool.Size(),
		"fast_failover", cfg.LLM.EnableFastFailover)

	batch, err := orchestrator.New(app.generator, orchestrator.Config{
		ChunkSize:      cfg.Orchestrator.ChunkSize,
		MaxRequests:    cfg.Orchestrator.MaxRequests,
		MaxRetryRounds: cfg.Orchestrator.MaxRetryRounds,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	app.notifier, err = setupNotifier(cfg.Notify, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger.With("component", "task_queue"))
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Task.WorkerCount,
	}, logger.With("component", "worker_pool"))

	repo := service.NewGenerationRepositoryAdapter(
		postgres.NewGenerationStore(db, logger),
		db,
	)
	runner := service.NewQueueTaskRunner(app.taskQueue)

	app.generationService, err = service.NewGenerationService(repo, runner, batch, app.notifier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	app.workerPool.Start()
	logger.Info("application initialized successfully")
	return app, nil
}

// setupNotifier builds the completion notifier from configuration. When
// notifications are disabled it returns the no-op implementation.
func setupNotifier(cfg config.NotifyConfig, logger *slog.Logger) (notify.Notifier, error) {
	if !cfg.Enabled {
		return notify.NoopNotifier{}, nil
	}
	return notify.NewSMTPNotifier(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.From,
		To:       cfg.To,
	}, logger.With("component", "smtp_notifier"))
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources. The queue
// is closed first so workers drain remaining tasks before the pool stops.
func (app *application) cleanup() {
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
