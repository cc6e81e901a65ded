package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/edugen/examgen-api/internal/api/shared"
	"github.com/edugen/examgen-api/internal/domain"
	"github.com/edugen/examgen-api/internal/service"
	"github.com/edugen/examgen-api/internal/store"
	"github.com/edugen/examgen-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrRecordNotFound),
		errors.Is(err, store.ErrGenerationNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTargetCount),
		errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrEmptyUserID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Backpressure from the task queue
	case errors.Is(err, task.ErrQueueFull):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrRecordNotFound),
		errors.Is(err, store.ErrGenerationNotFound):
		return "Generation record not found"

	case errors.Is(err, domain.ErrInvalidTargetCount):
		return "Target count must be between 1 and 50"

	case errors.Is(err, domain.ErrEmptyPrompt):
		return "System and user prompts are required"

	case errors.Is(err, domain.ErrEmptyUserID):
		return "User ID is required"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, task.ErrQueueFull):
		return "Service is busy, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes an error response derived from the internal error.
// An empty userMessage falls back to the mapped safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'SubmitGenerationRequest.UserID' Error:Field
	// validation for 'UserID' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "oneof":
		return "invalid value"
	case "dive":
		return "invalid element"
	default:
		return "validation failed"
	}
}
