package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/platform/logger"
	"github.com/edugen/examgen-api/internal/store"
)

// GenerationStore implements the store.GenerationStore interface using a
// PostgreSQL database. Requests and results are stored as JSONB documents;
// the orchestration core treats them as opaque payloads keyed by record ID.
type GenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewGenerationStore creates a PostgreSQL implementation of the
// GenerationStore interface. The caller owns the database handle's
// lifecycle. If logger is nil, a default logger is used.
func NewGenerationStore(db store.DBTX, logger *slog.Logger) *GenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

// Ensure GenerationStore implements store.GenerationStore
var _ store.GenerationStore = (*GenerationStore)(nil)

// Create implements store.GenerationStore.Create.
func (s *GenerationStore) Create(ctx context.Context, rec *domain.GenerationRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rec.Validate(); err != nil {
		log.Warn("record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("record_id", rec.ID.String()))
		return err
	}

	requestsJSON, err := json.Marshal(rec.Requests)
	if err != nil {
		return fmt.Errorf("marshal requests: %w", err)
	}
	resultsJSON, err := marshalResults(rec.Results)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO generation_records (id, user_id, provider, requests, results, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.UserID,
		rec.Provider,
		requestsJSON,
		resultsJSON,
		rec.Status,
		rec.Error,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create generation record",
			slog.String("error", err.Error()),
			slog.String("record_id", rec.ID.String()))
		return MapError(err)
	}

	log.Info("generation record created",
		slog.String("record_id", rec.ID.String()),
		slog.String("user_id", rec.UserID),
		slog.Int("request_count", len(rec.Requests)))
	return nil
}

// GetByID implements store.GenerationStore.GetByID.
func (s *GenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, provider, requests, results, status, error, created_at, updated_at
		FROM generation_records
		WHERE id = $1
	`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			log.Debug("generation record not found", slog.String("record_id", id.String()))
			return nil, store.ErrGenerationNotFound
		}
		log.Error("failed to get generation record",
			slog.String("error", err.Error()),
			slog.String("record_id", id.String()))
		return nil, MapError(err)
	}

	return rec, nil
}

// Update implements store.GenerationStore.Update.
func (s *GenerationStore) Update(ctx context.Context, rec *domain.GenerationRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rec.Validate(); err != nil {
		log.Warn("record validation failed during update",
			slog.String("error", err.Error()),
			slog.String("record_id", rec.ID.String()))
		return err
	}

	resultsJSON, err := marshalResults(rec.Results)
	if err != nil {
		return err
	}

	rec.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE generation_records
		SET results = $1, status = $2, error = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		resultsJSON,
		rec.Status,
		rec.Error,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		log.Error("failed to update generation record",
			slog.String("error", err.Error()),
			slog.String("record_id", rec.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "generation record"); err != nil {
		return store.ErrGenerationNotFound
	}

	log.Info("generation record updated",
		slog.String("record_id", rec.ID.String()),
		slog.String("status", string(rec.Status)))
	return nil
}

// ListByUser implements store.GenerationStore.ListByUser.
func (s *GenerationStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, provider, requests, results, status, error, created_at, updated_at
		FROM generation_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list generation records",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	records := []*domain.GenerationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			log.Error("failed to scan generation record row",
				slog.String("error", err.Error()))
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}

// WithTx implements store.GenerationStore.WithTx.
func (s *GenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &GenerationStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.GenerationRecord, error) {
	var (
		rec          domain.GenerationRecord
		status       string
		requestsJSON []byte
		resultsJSON  []byte
	)

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Provider,
		&requestsJSON,
		&resultsJSON,
		&status,
		&rec.Error,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.RecordStatus(status)
	if err := json.Unmarshal(requestsJSON, &rec.Requests); err != nil {
		return nil, fmt.Errorf("unmarshal requests: %w", err)
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &rec.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
	}
	return &rec, nil
}

// marshalResults serializes the result list, mapping an empty list to a
// SQL NULL so unprocessed records stay distinguishable from processed
// ones with empty output.
func marshalResults(results []domain.RequestResult) (any, error) {
	if results == nil {
		return nil, nil
	}
	out, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return out, nil
}
