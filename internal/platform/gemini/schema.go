package gemini

import "google.golang.org/genai"

// responseSchema constrains the model's JSON output to the question
// envelope the decoder expects: an object with a "questions" array. The
// passage field is a string so the model can emit either the literal "1"
// (source passage used verbatim) or a rewritten passage.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"questions": {
				Type:  genai.TypeArray,
				Items: questionSchema(),
			},
		},
		Required: []string{"questions"},
	}
}

func questionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question_text": {
				Type:        genai.TypeString,
				Description: "The question stem.",
			},
			"reference_text": {
				Type:        genai.TypeString,
				Description: "Boxed supplementary material, empty when unused.",
			},
			"choices": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"number": {Type: genai.TypeInteger},
						"text":   {Type: genai.TypeString},
					},
					Required: []string{"number", "text"},
				},
			},
			"correct_answer": {Type: genai.TypeString},
			"explanation":    {Type: genai.TypeString},
			"passage": {
				Type:        genai.TypeString,
				Description: "\"1\" when the source passage is used verbatim, a rewritten passage otherwise, empty when no passage applies.",
			},
		},
		Required: []string{"question_text", "choices", "correct_answer", "explanation"},
	}
}
