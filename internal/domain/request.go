package domain

// Limits on a single logical generation request.
const (
	MinTargetCount = 1
	MaxTargetCount = 50
)

// Attachment references a file already uploaded to the provider's file
// store. The core never reads local files; it forwards references.
type Attachment struct {
	URI         string `json:"uri"`
	MIMEType    string `json:"mime_type"`
	DisplayName string `json:"display_name,omitempty"`
}

// Tuning carries optional per-provider sampling parameters. Nil fields
// mean "use the provider default".
type Tuning struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
}

// GenerationRequest is one caller's logical ask: produce TargetCount
// questions from the rendered prompts. Immutable once constructed.
type GenerationRequest struct {
	TargetCount  int          `json:"target_count"`
	SystemPrompt string       `json:"system_prompt"`
	UserPrompt   string       `json:"user_prompt"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	Tuning       *Tuning      `json:"tuning,omitempty"`
}

// Validate checks if the GenerationRequest has valid data.
func (r *GenerationRequest) Validate() error {
	if r.TargetCount < MinTargetCount || r.TargetCount > MaxTargetCount {
		return ErrInvalidTargetCount
	}

	if r.SystemPrompt == "" || r.UserPrompt == "" {
		return ErrEmptyPrompt
	}

	return nil
}
