package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNilProcessor  = errors.New("record processor cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrEmptyRecordID = errors.New("record ID cannot be empty")
)

// RecordProcessor defines the interface the task needs from the
// generation service: drive one submitted record through orchestration,
// persistence, and notification.
type RecordProcessor interface {
	// ProcessRecord runs the full generation cycle for the record and
	// persists the outcome, including terminal failure states.
	ProcessRecord(ctx context.Context, recordID uuid.UUID) error
}

// generationPayload represents the serialized data stored in the task
type generationPayload struct {
	RecordID uuid.UUID `json:"record_id"`
}

// GenerationTask implements the Task interface for processing a submitted
// generation record in the background.
type GenerationTask struct {
	id        uuid.UUID
	recordID  uuid.UUID
	processor RecordProcessor
	logger    *slog.Logger
	status    TaskStatus
}

// NewGenerationTask creates a new question generation task
func NewGenerationTask(
	recordID uuid.UUID,
	processor RecordProcessor,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if recordID == uuid.Nil {
		return nil, ErrEmptyRecordID
	}

	return &GenerationTask{
		id:        uuid.New(),
		recordID:  recordID,
		processor: processor,
		logger:    logger.With("task_type", TaskTypeQuestionGeneration, "record_id", recordID),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *GenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *GenerationTask) Type() string {
	return TaskTypeQuestionGeneration
}

// Payload returns the task data as a byte slice
func (t *GenerationTask) Payload() []byte {
	data, err := json.Marshal(generationPayload{RecordID: t.recordID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *GenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the generation task. The processor owns the record's
// status transitions and persistence; the task only tracks its own
// lifecycle.
func (t *GenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting question generation task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	if err := t.processor.ProcessRecord(ctx, t.recordID); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to process generation record", "error", err)
		return fmt.Errorf("failed to process generation record: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("question generation task completed")
	return nil
}
