package service

import (
	"errors"
	"fmt"

	"github.com/edugen/examgen-api/internal/store"
)

// Common sentinel errors for the generation service
var (
	// ErrRecordNotFound indicates that the generation record does not exist
	ErrRecordNotFound = errors.New("generation record not found")
)

// GenerationServiceError wraps errors from the generation service with
// context about the failed operation.
type GenerationServiceError struct {
	// Operation is the operation that failed (e.g., "submit_generation")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for GenerationServiceError.
func (e *GenerationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("generation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GenerationServiceError) Unwrap() error {
	return e.Err
}

// NewGenerationServiceError creates a new GenerationServiceError.
// It returns known sentinel errors directly without wrapping.
func NewGenerationServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrRecordNotFound) || errors.Is(err, store.ErrGenerationNotFound) {
		return ErrRecordNotFound
	}

	return &GenerationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
