package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/store"
	"github.com/edugen/examgen-api/internal/task"
)

// generationRepositoryAdapter adapts a store.GenerationStore plus its
// database handle to the service-layer GenerationRepository contract.
type generationRepositoryAdapter struct {
	store store.GenerationStore
	db    *sql.DB
}

// NewGenerationRepositoryAdapter creates a GenerationRepository backed by
// the given store. The database handle is exposed for transaction scoping.
func NewGenerationRepositoryAdapter(s store.GenerationStore, db *sql.DB) GenerationRepository {
	return &generationRepositoryAdapter{store: s, db: db}
}

func (a *generationRepositoryAdapter) Create(ctx context.Context, rec *domain.GenerationRecord) error {
	return a.store.Create(ctx, rec)
}

func (a *generationRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRecord, error) {
	return a.store.GetByID(ctx, id)
}

func (a *generationRepositoryAdapter) Update(ctx context.Context, rec *domain.GenerationRecord) error {
	return a.store.Update(ctx, rec)
}

func (a *generationRepositoryAdapter) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationRecord, error) {
	return a.store.ListByUser(ctx, userID, limit, offset)
}

func (a *generationRepositoryAdapter) WithTx(tx *sql.Tx) GenerationRepository {
	return &generationRepositoryAdapter{store: a.store.WithTx(tx), db: a.db}
}

func (a *generationRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// queueTaskRunner adapts the task queue to the TaskRunner contract.
type queueTaskRunner struct {
	queue *task.TaskQueue
}

// NewQueueTaskRunner creates a TaskRunner that enqueues onto the given
// task queue.
func NewQueueTaskRunner(queue *task.TaskQueue) TaskRunner {
	return &queueTaskRunner{queue: queue}
}

func (r *queueTaskRunner) Submit(_ context.Context, t task.Task) error {
	return r.queue.Enqueue(t)
}
