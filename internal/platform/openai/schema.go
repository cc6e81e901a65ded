package openai

// envelopeSchemaJSON is the strict JSON schema sent with every call. It
// mirrors the question envelope the decoder expects. Strict mode requires
// additionalProperties:false and every property listed as required.
const envelopeSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["question_text", "reference_text", "choices", "correct_answer", "explanation", "passage"],
        "properties": {
          "question_text": {
            "type": "string",
            "description": "The question stem."
          },
          "reference_text": {
            "type": "string",
            "description": "Boxed supplementary material, empty when unused."
          },
          "choices": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["number", "text"],
              "properties": {
                "number": {"type": "integer"},
                "text": {"type": "string"}
              }
            }
          },
          "correct_answer": {"type": "string"},
          "explanation": {"type": "string"},
          "passage": {
            "type": "string",
            "description": "\"1\" when the source passage is used verbatim, a rewritten passage otherwise, empty when no passage applies."
          }
        }
      }
    }
  }
}`
