package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/edugen/examgen-api/internal/api/shared"
	"github.com/edugen/examgen-api/internal/credential"
	"github.com/edugen/examgen-api/internal/service"
)

// CredentialInspector exposes the pool health snapshot to the status
// endpoint without coupling the handler to the pool implementation.
type CredentialInspector interface {
	Snapshot() []credential.Status
}

// GenerationHandler handles generation-related HTTP requests.
type GenerationHandler struct {
	service     service.GenerationService
	credentials CredentialInspector
	provider    string
	logger      *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler. The provider name
// is stamped onto submitted records; credentials may be nil, which
// disables the status endpoint's detail.
func NewGenerationHandler(
	svc service.GenerationService,
	credentials CredentialInspector,
	provider string,
	logger *slog.Logger,
) *GenerationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationHandler{
		service:     svc,
		credentials: credentials,
		provider:    provider,
		logger:      logger.With("component", "generation_handler"),
	}
}

// SubmitGeneration handles POST /api/generations. It accepts up to ten
// logical requests, persists a pending record, and returns 202 with the
// record ID the caller polls.
func (h *GenerationHandler) SubmitGeneration(w http.ResponseWriter, r *http.Request) {
	var req SubmitGenerationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.service.SubmitGeneration(r.Context(), req.UserID, h.provider, toDomainRequests(req.Requests))
	if err != nil {
		h.logger.Error("failed to submit generation",
			"error", err,
			"user_id", req.UserID)
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitGenerationResponse{
		ID:     rec.ID,
		Status: string(rec.Status),
	})
}

// GetGeneration handles GET /api/generations/{id}.
func (h *GenerationHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.service.GetGeneration(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toRecordResponse(rec))
}

// ListGenerations handles GET /api/generations?user_id=...&limit=...&offset=...
func (h *GenerationHandler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := parseQueryInt(r, "limit", 10)
	offset := parseQueryInt(r, "offset", 0)

	recs, err := h.service.ListGenerations(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	out := make([]GenerationRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordResponse(rec))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// CredentialStatus handles GET /api/credentials/status. Keys in the
// snapshot are already redacted by the pool.
func (h *GenerationHandler) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	if h.credentials == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Credential status not available")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.credentials.Snapshot())
}

func parseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
