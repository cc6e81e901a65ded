package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugen/examgen-api/internal/credential"
	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockService scripts the service layer for handler tests.
type mockService struct {
	submitRec  *domain.GenerationRecord
	submitErr  error
	getRec     *domain.GenerationRecord
	getErr     error
	listRecs   []*domain.GenerationRecord
	listErr    error
	lastUserID string
}

func (m *mockService) SubmitGeneration(_ context.Context, userID, _ string, _ []domain.GenerationRequest) (*domain.GenerationRecord, error) {
	m.lastUserID = userID
	return m.submitRec, m.submitErr
}

func (m *mockService) GetGeneration(context.Context, uuid.UUID) (*domain.GenerationRecord, error) {
	return m.getRec, m.getErr
}

func (m *mockService) ListGenerations(_ context.Context, userID string, _, _ int) ([]*domain.GenerationRecord, error) {
	m.lastUserID = userID
	return m.listRecs, m.listErr
}

func (m *mockService) ProcessRecord(context.Context, uuid.UUID) error {
	return nil
}

func newTestRouter(h *GenerationHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/generations", h.SubmitGeneration)
	r.Get("/api/generations", h.ListGenerations)
	r.Get("/api/generations/{id}", h.GetGeneration)
	r.Get("/api/credentials/status", h.CredentialStatus)
	return r
}

func sampleRecord(t *testing.T) *domain.GenerationRecord {
	t.Helper()
	rec, err := domain.NewGenerationRecord("user-1", "gemini", []domain.GenerationRequest{{
		TargetCount:  10,
		SystemPrompt: "sys",
		UserPrompt:   "user",
	}})
	require.NoError(t, err)
	return rec
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(SubmitGenerationRequest{
		UserID: "user-1",
		Requests: []GenerationRequestDTO{{
			TargetCount:  10,
			SystemPrompt: "sys",
			UserPrompt:   "user",
		}},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSubmitGeneration_Accepted(t *testing.T) {
	t.Parallel()

	rec := sampleRecord(t)
	svc := &mockService{submitRec: rec}
	router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/generations", submitBody(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp SubmitGenerationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, rec.ID, resp.ID)
	assert.Equal(t, string(domain.RecordStatusPending), resp.Status)
	assert.Equal(t, "user-1", svc.lastUserID)
}

func TestSubmitGeneration_ValidationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing user_id", `{"requests":[{"target_count":5,"system_prompt":"s","user_prompt":"u"}]}`},
		{"empty requests", `{"user_id":"u1","requests":[]}`},
		{"target count too high", `{"user_id":"u1","requests":[{"target_count":51,"system_prompt":"s","user_prompt":"u"}]}`},
		{"missing prompt", `{"user_id":"u1","requests":[{"target_count":5,"system_prompt":"s"}]}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{submitRec: sampleRecord(t)}
			router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

			req := httptest.NewRequest(http.MethodPost, "/api/generations", bytes.NewBufferString(tc.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSubmitGeneration_ServiceError(t *testing.T) {
	t.Parallel()

	svc := &mockService{submitErr: errors.New("db down")}
	router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/api/generations", submitBody(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestGetGeneration_Found(t *testing.T) {
	t.Parallel()

	rec := sampleRecord(t)
	svc := &mockService{getRec: rec}
	router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/generations/"+rec.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp GenerationRecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, rec.ID, resp.ID)
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, string(domain.RecordStatusPending), resp.Status)
}

func TestGetGeneration_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{getErr: service.ErrRecordNotFound}
	router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/generations/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGeneration_InvalidID(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/generations/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListGenerations(t *testing.T) {
	t.Parallel()

	rec := sampleRecord(t)
	svc := &mockService{listRecs: []*domain.GenerationRecord{rec}}
	router := newTestRouter(NewGenerationHandler(svc, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/generations?user_id=user-1&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []GenerationRecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, rec.ID, resp[0].ID)
	assert.Equal(t, "user-1", svc.lastUserID)
}

func TestListGenerations_MissingUserID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(NewGenerationHandler(&mockService{}, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/generations", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCredentialStatus(t *testing.T) {
	t.Parallel()

	pool, err := credential.NewPool([]string{"key-alpha-000", "key-bravo-000"}, credential.StrategyRoundRobin)
	require.NoError(t, err)

	router := newTestRouter(NewGenerationHandler(&mockService{}, pool, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/credentials/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var statuses []credential.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	// full key material never leaves the pool
	assert.NotContains(t, w.Body.String(), "key-alpha-000")
}

func TestCredentialStatus_Unavailable(t *testing.T) {
	t.Parallel()

	router := newTestRouter(NewGenerationHandler(&mockService{}, nil, "gemini", testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/credentials/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParseQueryInt(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x?limit=25&bad=abc&neg=-3", nil)
	assert.Equal(t, 25, parseQueryInt(req, "limit", 10))
	assert.Equal(t, 10, parseQueryInt(req, "bad", 10))
	assert.Equal(t, 10, parseQueryInt(req, "neg", 10))
	assert.Equal(t, 10, parseQueryInt(req, "missing", 10))
}
