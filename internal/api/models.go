package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/edugen/examgen-api/internal/domain"
)

// Common request/response structures

// TuningDTO carries optional sampling overrides for one request.
type TuningDTO struct {
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP        *float64 `json:"top_p,omitempty"       validate:"omitempty,gte=0,lte=1"`
	TopK        *int     `json:"top_k,omitempty"       validate:"omitempty,gte=1"`
}

// AttachmentDTO references a file already uploaded to the provider.
type AttachmentDTO struct {
	URI         string `json:"uri"          validate:"required"`
	MIMEType    string `json:"mime_type"    validate:"required"`
	DisplayName string `json:"display_name,omitempty"`
}

// GenerationRequestDTO is one logical request inside a submission.
type GenerationRequestDTO struct {
	TargetCount  int             `json:"target_count"  validate:"required,min=1,max=50"`
	SystemPrompt string          `json:"system_prompt" validate:"required"`
	UserPrompt   string          `json:"user_prompt"   validate:"required"`
	Attachments  []AttachmentDTO `json:"attachments,omitempty" validate:"omitempty,dive"`
	Tuning       *TuningDTO      `json:"tuning,omitempty"`
}

// SubmitGenerationRequest defines the payload for the generation submission endpoint.
type SubmitGenerationRequest struct {
	UserID   string                 `json:"user_id"  validate:"required"`
	Requests []GenerationRequestDTO `json:"requests" validate:"required,min=1,max=10,dive"`
}

// SubmitGenerationResponse acknowledges an accepted submission.
type SubmitGenerationResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// GenerationRecordResponse is the full read model for one record.
type GenerationRecordResponse struct {
	ID        uuid.UUID                  `json:"id"`
	UserID    string                     `json:"user_id"`
	Provider  string                     `json:"provider"`
	Status    string                     `json:"status"`
	Requests  []domain.GenerationRequest `json:"requests"`
	Results   []domain.RequestResult     `json:"results,omitempty"`
	Error     string                     `json:"error,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// toDomainRequests converts submission DTOs to domain requests.
func toDomainRequests(dtos []GenerationRequestDTO) []domain.GenerationRequest {
	out := make([]domain.GenerationRequest, len(dtos))
	for i, dto := range dtos {
		req := domain.GenerationRequest{
			TargetCount:  dto.TargetCount,
			SystemPrompt: dto.SystemPrompt,
			UserPrompt:   dto.UserPrompt,
		}
		for _, a := range dto.Attachments {
			req.Attachments = append(req.Attachments, domain.Attachment{
				URI:         a.URI,
				MIMEType:    a.MIMEType,
				DisplayName: a.DisplayName,
			})
		}
		if dto.Tuning != nil {
			req.Tuning = &domain.Tuning{
				Temperature: dto.Tuning.Temperature,
				TopP:        dto.Tuning.TopP,
				TopK:        dto.Tuning.TopK,
			}
		}
		out[i] = req
	}
	return out
}

// toRecordResponse converts a domain record to its read model.
func toRecordResponse(rec *domain.GenerationRecord) GenerationRecordResponse {
	return GenerationRecordResponse{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Provider:  rec.Provider,
		Status:    string(rec.Status),
		Requests:  rec.Requests,
		Results:   rec.Results,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
