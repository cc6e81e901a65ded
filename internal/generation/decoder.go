package generation

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/edugen/examgen-api/internal/domain"
)

// wireChoice mirrors one answer option as the provider emits it.
type wireChoice struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// wireQuestion mirrors one question as the provider emits it under the
// structured-output schema.
type wireQuestion struct {
	QuestionText  string       `json:"question_text"`
	ReferenceText string       `json:"reference_text"`
	Choices       []wireChoice `json:"choices"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	Passage       string       `json:"passage"`
}

// wireEnvelope is the envelope form: an object with a named question list.
type wireEnvelope struct {
	Questions []json.RawMessage `json:"questions"`
}

// Decode parses a raw provider response into validated questions. It
// tolerates both the envelope form and a bare array, returns an empty
// list on malformed JSON, and drops individually invalid items while
// keeping the rest. Surviving questions are numbered sequentially from 1
// and never exceed expectedCount, keeping the first items in response
// order when the provider over-produces.
func Decode(logger *slog.Logger, raw []byte, expectedCount int) []domain.Question {
	if logger == nil {
		logger = slog.Default()
	}

	items, ok := extractItems(raw)
	if !ok {
		logger.Warn("failed to parse provider response",
			"response_prefix", truncate(string(raw), 200))
		return nil
	}

	if expectedCount > 0 && len(items) > expectedCount {
		items = items[:expectedCount]
	}

	questions := make([]domain.Question, 0, len(items))
	for i, item := range items {
		var wq wireQuestion
		if err := json.Unmarshal(item, &wq); err != nil {
			logger.Warn("skipping malformed question", "index", i, "error", err)
			continue
		}

		q := toDomainQuestion(wq, len(questions)+1)
		if err := q.Validate(); err != nil {
			logger.Warn("skipping invalid question", "index", i, "error", err)
			continue
		}

		questions = append(questions, q)
	}

	return questions
}

// extractItems pulls the raw question list out of either response shape.
func extractItems(raw []byte) ([]json.RawMessage, bool) {
	var envelope wireEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Questions != nil {
		return envelope.Questions, true
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}

	return nil, false
}

// toDomainQuestion converts a wire question to the domain shape. The
// passage field carries overloaded semantics from the generation prompt:
// the literal "1" marks verbatim use of the source passage, any other
// non-empty value is a rewritten passage, and empty means no passage.
func toDomainQuestion(wq wireQuestion, number int) domain.Question {
	passage := strings.TrimSpace(wq.Passage)

	info := domain.PassageInfo{SourceType: domain.SourceTypeNone}
	text := domain.QuestionText{
		Text:       strings.TrimSpace(wq.QuestionText),
		BoxContent: strings.TrimSpace(wq.ReferenceText),
	}

	switch {
	case passage == "1":
		info.OriginalUsed = true
		info.SourceType = domain.SourceTypeOriginal
	case passage != "":
		info.OriginalUsed = true
		info.SourceType = domain.SourceTypeModified
		text.ModifiedPassage = passage
	}

	choices := make([]domain.Choice, len(wq.Choices))
	for i, c := range wq.Choices {
		choices[i] = domain.Choice{Number: c.Number, Text: strings.TrimSpace(c.Text)}
	}

	return domain.Question{
		Number:        number,
		PassageInfo:   info,
		Text:          text,
		Choices:       choices,
		CorrectAnswer: strings.TrimSpace(wq.CorrectAnswer),
		Explanation:   strings.TrimSpace(wq.Explanation),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
