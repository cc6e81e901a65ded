package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/edugen/examgen-api/internal/domain"
)

// GenerationStore defines the interface for generation record persistence.
type GenerationStore interface {
	// Create saves a new generation record to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, rec *domain.GenerationRecord) error

	// GetByID retrieves a generation record by its unique ID.
	// Returns ErrGenerationNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRecord, error)

	// Update saves changes to an existing record, including its results
	// and status. Returns ErrGenerationNotFound if the record does not
	// exist.
	Update(ctx context.Context, rec *domain.GenerationRecord) error

	// ListByUser retrieves a user's records, newest first.
	// Returns an empty slice if the user has no records.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationRecord, error)

	// WithTx returns a new GenerationStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) GenerationStore
}
