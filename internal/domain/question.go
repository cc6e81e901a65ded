package domain

import "fmt"

// SourceType describes how a question relates to the source text.
type SourceType string

// Possible passage source types.
const (
	SourceTypeOriginal SourceType = "original"
	SourceTypeModified SourceType = "modified"
	SourceTypeNone     SourceType = "none"
)

// Choice is one labeled answer option of a question.
type Choice struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// PassageInfo records whether and how the source passage was used.
type PassageInfo struct {
	OriginalUsed bool       `json:"original_used"`
	SourceType   SourceType `json:"source_type"`
}

// QuestionText holds the textual parts of a question: the stem, an
// optional rewritten passage, and optional boxed reference content.
type QuestionText struct {
	Text            string `json:"text"`
	ModifiedPassage string `json:"modified_passage,omitempty"`
	BoxContent      string `json:"box_content,omitempty"`
}

// Question is one generated test question. Questions are immutable after
// creation except for the orchestrator's single write of IsUsed and the
// BatchLabel/Number remapping during finalization.
type Question struct {
	// Number is the 1-based position of the question. The decoder assigns
	// it within a provider response; the orchestrator remaps it across the
	// final, ordered item list.
	Number int `json:"question_number"`

	PassageInfo   PassageInfo  `json:"passage_info"`
	Text          QuestionText `json:"question_text"`
	Choices       []Choice     `json:"choices"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`

	// BatchLabel identifies the originating sub-batch: "1", "2", ... for
	// the initial dispatch, "retry_1".."retry_3" for shortfall rounds.
	BatchLabel string `json:"batch_label,omitempty"`

	// IsUsed is true for questions within the requested count and false
	// for surplus questions retained for audit.
	IsUsed bool `json:"is_used"`
}

// Validate checks if the Question has valid data.
// Returns an error if any field fails validation.
func (q *Question) Validate() error {
	if q.Text.Text == "" {
		return ErrEmptyQuestionText
	}

	if len(q.Choices) < 4 || len(q.Choices) > 5 {
		return ErrInvalidChoiceCount
	}

	for _, c := range q.Choices {
		if c.Number < 1 || c.Number > 5 {
			return ErrInvalidChoiceNumber
		}
		if c.Text == "" {
			return fmt.Errorf("%w: choice %d has empty text", ErrValidation, c.Number)
		}
	}

	if q.CorrectAnswer == "" {
		return ErrEmptyCorrectAnswer
	}

	if q.Explanation == "" {
		return ErrEmptyExplanation
	}

	return nil
}
