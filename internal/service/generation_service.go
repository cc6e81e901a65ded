package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/notify"
	"github.com/edugen/examgen-api/internal/store"
	"github.com/edugen/examgen-api/internal/task"
)

// GenerationRepository defines the repository interface for the service
// layer, aligned with store.GenerationStore.
type GenerationRepository interface {
	// Create saves a new generation record to the store
	Create(ctx context.Context, rec *domain.GenerationRecord) error

	// GetByID retrieves a generation record by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRecord, error)

	// Update saves changes to an existing record
	Update(ctx context.Context, rec *domain.GenerationRecord) error

	// ListByUser retrieves a user's records, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationRecord, error)

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) GenerationRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, t task.Task) error
}

// BatchRunner is the orchestration capability the service drives: turn a
// record's request list into per-request results.
type BatchRunner interface {
	Run(ctx context.Context, requests []domain.GenerationRequest) ([]domain.RequestResult, error)
}

// GenerationService provides the submit/process/query lifecycle for
// generation records.
type GenerationService interface {
	// SubmitGeneration persists a pending record and enqueues it for
	// background processing. The returned record carries the ID callers
	// poll with.
	SubmitGeneration(ctx context.Context, userID, provider string, requests []domain.GenerationRequest) (*domain.GenerationRecord, error)

	// GetGeneration retrieves a record by ID.
	GetGeneration(ctx context.Context, id uuid.UUID) (*domain.GenerationRecord, error)

	// ListGenerations retrieves a user's records, newest first.
	ListGenerations(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationRecord, error)

	// ProcessRecord runs the full generation cycle for a submitted record.
	// It implements task.RecordProcessor.
	ProcessRecord(ctx context.Context, recordID uuid.UUID) error
}

// generationServiceImpl implements the GenerationService interface
type generationServiceImpl struct {
	repo     GenerationRepository
	runner   TaskRunner
	batch    BatchRunner
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewGenerationService creates a new GenerationService.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(
	repo GenerationRepository,
	runner TaskRunner,
	batch BatchRunner,
	notifier notify.Notifier,
	logger *slog.Logger,
) (GenerationService, error) {
	if repo == nil {
		return nil, &GenerationServiceError{
			Operation: "create_service",
			Message:   "repo cannot be nil",
		}
	}
	if runner == nil {
		return nil, &GenerationServiceError{
			Operation: "create_service",
			Message:   "task runner cannot be nil",
		}
	}
	if batch == nil {
		return nil, &GenerationServiceError{
			Operation: "create_service",
			Message:   "batch runner cannot be nil",
		}
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &generationServiceImpl{
		repo:     repo,
		runner:   runner,
		batch:    batch,
		notifier: notifier,
		logger:   logger.With("component", "generation_service"),
	}, nil
}

// SubmitGeneration creates a pending record inside a transaction, then
// enqueues the background task that processes it.
func (s *generationServiceImpl) SubmitGeneration(
	ctx context.Context,
	userID, provider string,
	requests []domain.GenerationRequest,
) (*domain.GenerationRecord, error) {
	rec, err := domain.NewGenerationRecord(userID, provider, requests)
	if err != nil {
		s.logger.Error("failed to create generation record",
			"error", err,
			"user_id", userID)
		return nil, NewGenerationServiceError("submit_generation", "invalid generation record", err)
	}

	err = store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, rec); err != nil {
			s.logger.Error("failed to save generation record",
				"error", err,
				"record_id", rec.ID)
			return NewGenerationServiceError("submit_generation", "failed to save record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t, err := task.NewGenerationTask(rec.ID, s, s.logger)
	if err != nil {
		return nil, NewGenerationServiceError("submit_generation", "failed to create task", err)
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		// The record stays pending; surface the enqueue failure so the
		// caller can retry the submission.
		s.logger.Error("failed to enqueue generation task",
			"error", err,
			"record_id", rec.ID)
		return nil, NewGenerationServiceError("submit_generation", "failed to enqueue task", err)
	}

	s.logger.Info("generation record submitted",
		"record_id", rec.ID,
		"user_id", userID,
		"request_count", len(requests))
	return rec, nil
}

// GetGeneration retrieves a record by its ID.
func (s *generationServiceImpl) GetGeneration(ctx context.Context, id uuid.UUID) (*domain.GenerationRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrGenerationNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, NewGenerationServiceError("get_generation", "failed to retrieve record", err)
	}
	return rec, nil
}

// ListGenerations retrieves a user's records, newest first.
func (s *generationServiceImpl) ListGenerations(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationRecord, error) {
	recs, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewGenerationServiceError("list_generations", "failed to list records", err)
	}
	return recs, nil
}

// ProcessRecord drives one submitted record to a terminal state:
// processing, orchestrated generation, persisted results, and a
// best-effort completion notification.
func (s *generationServiceImpl) ProcessRecord(ctx context.Context, recordID uuid.UUID) error {
	rec, err := s.GetGeneration(ctx, recordID)
	if err != nil {
		return err
	}

	if err := s.setStatus(ctx, rec, domain.RecordStatusProcessing, ""); err != nil {
		return err
	}

	results, err := s.batch.Run(ctx, rec.Requests)
	if err != nil {
		s.logger.Error("orchestration failed",
			"error", err,
			"record_id", rec.ID)
		if statusErr := s.setStatus(ctx, rec, domain.RecordStatusFailed, err.Error()); statusErr != nil {
			return statusErr
		}
		return NewGenerationServiceError("process_record", "orchestration failed", err)
	}

	rec.Results = results
	status := finalStatus(results)
	if err := s.setStatus(ctx, rec, status, ""); err != nil {
		return err
	}

	summary := summarize(rec, results)
	if err := s.notifier.Notify(ctx, summary); err != nil {
		// Notification is best-effort; the record is already persisted.
		s.logger.Warn("failed to send completion notification",
			"error", err,
			"record_id", rec.ID)
	}

	s.logger.Info("generation record processed",
		"record_id", rec.ID,
		"status", string(status),
		"total_questions", summary.TotalQuestions)
	return nil
}

// setStatus persists a status transition on the record.
func (s *generationServiceImpl) setStatus(ctx context.Context, rec *domain.GenerationRecord, status domain.RecordStatus, errMsg string) error {
	if err := rec.UpdateStatus(status); err != nil {
		return NewGenerationServiceError("process_record", "invalid status transition", err)
	}
	rec.Error = errMsg

	if err := s.repo.Update(ctx, rec); err != nil {
		s.logger.Error("failed to persist record status",
			"error", err,
			"record_id", rec.ID,
			"status", string(status))
		return NewGenerationServiceError("process_record", "failed to persist status", err)
	}
	return nil
}

// finalStatus maps per-request outcomes onto the record's terminal state:
// all succeeded, some succeeded, or none did.
func finalStatus(results []domain.RequestResult) domain.RecordStatus {
	succeeded := 0
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		}
	}
	switch {
	case succeeded == len(results):
		return domain.RecordStatusCompleted
	case succeeded > 0:
		return domain.RecordStatusCompletedWithErrors
	default:
		return domain.RecordStatusFailed
	}
}

func summarize(rec *domain.GenerationRecord, results []domain.RequestResult) notify.Summary {
	summary := notify.Summary{
		UserID:      rec.UserID,
		RecordID:    rec.ID,
		GeneratedAt: time.Now().UTC(),
	}
	for _, r := range results {
		if r.Succeeded {
			summary.SucceededRequests++
		} else {
			summary.FailedRequests++
		}
		summary.TotalQuestions += len(r.Questions)
	}
	return summary
}
