package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus represents the processing state of a generation record.
type RecordStatus string

// Possible record status values.
const (
	RecordStatusPending             RecordStatus = "pending"
	RecordStatusProcessing          RecordStatus = "processing"
	RecordStatusCompleted           RecordStatus = "completed"
	RecordStatusCompletedWithErrors RecordStatus = "completed_with_errors"
	RecordStatusFailed              RecordStatus = "failed"
)

// GenerationRecord is one submitted batch of generation requests and,
// once processed, their results. The user ID is an opaque caller identity
// used only for persistence and notification.
type GenerationRecord struct {
	ID        uuid.UUID           `json:"id"`
	UserID    string              `json:"user_id"`
	Provider  string              `json:"provider"`
	Requests  []GenerationRequest `json:"requests"`
	Results   []RequestResult     `json:"results,omitempty"`
	Status    RecordStatus        `json:"status"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewGenerationRecord creates a pending record for the given caller
// identity and request list. Returns an error if validation fails.
func NewGenerationRecord(userID, provider string, requests []GenerationRequest) (*GenerationRecord, error) {
	rec := &GenerationRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Provider:  provider,
		Requests:  requests,
		Status:    RecordStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the GenerationRecord has valid data.
func (r *GenerationRecord) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}

	if !isValidRecordStatus(r.Status) {
		return ErrInvalidRecordStatus
	}

	for i := range r.Requests {
		if err := r.Requests[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// UpdateStatus updates the record's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (r *GenerationRecord) UpdateStatus(status RecordStatus) error {
	if !isValidRecordStatus(status) {
		return ErrInvalidRecordStatus
	}

	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidRecordStatus checks if the given status is a valid RecordStatus.
func isValidRecordStatus(status RecordStatus) bool {
	switch status {
	case RecordStatusPending, RecordStatusProcessing, RecordStatusCompleted,
		RecordStatusCompletedWithErrors, RecordStatusFailed:
		return true
	default:
		return false
	}
}
