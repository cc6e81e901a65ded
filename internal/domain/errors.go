package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyQuestionText is returned when a question has no stem.
	ErrEmptyQuestionText = errors.New("question text cannot be empty")

	// ErrInvalidChoiceCount is returned when a question does not carry
	// between four and five choices.
	ErrInvalidChoiceCount = errors.New("question must have 4 or 5 choices")

	// ErrInvalidChoiceNumber is returned when a choice number is outside 1..5.
	ErrInvalidChoiceNumber = errors.New("choice number must be between 1 and 5")

	// ErrEmptyCorrectAnswer is returned when a question has no answer expression.
	ErrEmptyCorrectAnswer = errors.New("correct answer cannot be empty")

	// ErrEmptyExplanation is returned when a question has no explanation.
	ErrEmptyExplanation = errors.New("explanation cannot be empty")

	// ErrInvalidTargetCount is returned when a generation request asks for
	// a non-positive or excessive number of questions.
	ErrInvalidTargetCount = errors.New("target count must be between 1 and 50")

	// ErrEmptyPrompt is returned when a generation request is missing a
	// rendered system or user instruction.
	ErrEmptyPrompt = errors.New("system and user prompts cannot be empty")

	// ErrInvalidRecordStatus is returned when a record status is not valid.
	ErrInvalidRecordStatus = errors.New("invalid generation record status")

	// ErrEmptyUserID is returned when a generation record has no owner.
	ErrEmptyUserID = errors.New("user ID cannot be empty")
)
