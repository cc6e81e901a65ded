package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/edugen/examgen-api/internal/store"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil stays nil", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation maps to duplicate", &pgconn.PgError{Code: "23505"}, store.ErrDuplicate},
		{"foreign key violation maps to invalid entity", &pgconn.PgError{Code: "23503"}, store.ErrInvalidEntity},
		{"check violation maps to invalid entity", &pgconn.PgError{Code: "23514"}, store.ErrInvalidEntity},
		{"not null violation maps to invalid entity", &pgconn.PgError{Code: "23502"}, store.ErrInvalidEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	t.Run("unknown error passes through", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		assert.Equal(t, cause, MapError(cause))
	})

	t.Run("wrapped pg error still maps", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, MapError(wrapped), store.ErrDuplicate)
	})
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "generation record"))

	err := CheckRowsAffected(fakeResult{rows: 0}, "generation record")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "generation record")

	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, ""), store.ErrNotFound)

	assert.Error(t, CheckRowsAffected(fakeResult{err: errors.New("driver does not support")}, "x"))
	assert.Error(t, CheckRowsAffected(nil, "x"))
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrGenerationNotFound))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}
