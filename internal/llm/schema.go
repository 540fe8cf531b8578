package llm

// BuildQuestionJSONSchema returns the JSON-Schema (draft 2020-12 subset) of one question,
// as a generic map. It is embedded in the prompt and used locally to validate.
func BuildQuestionJSONSchema() map[string]any {
	option := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":        map[string]any{"type": "string", "minLength": 1},
			"text":      map[string]any{"type": "string", "minLength": 1},
			"isCorrect": map[string]any{"type": "boolean"},
		},
		"required": []string{"id", "text", "isCorrect"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          map[string]any{"type": "string", "minLength": 1},
			"text":        map[string]any{"type": "string", "minLength": 1, "pattern": `\S`},
			"options":     map[string]any{"type": "array", "minItems": 1, "items": option},
			"explanation": map[string]any{"type": "string"},
		},
		"required": []string{"id", "text", "options", "explanation"},
	}
}

// BuildQuestionsJSONSchema wraps the question schema in a non-empty array.
func BuildQuestionsJSONSchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    BuildQuestionJSONSchema(),
	}
}
