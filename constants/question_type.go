package constants

import "strings"

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	ShortAnswer    QuestionType = "short-answer"
)

var allQuestionTypes = []QuestionType{
	MultipleChoice,
	TrueFalse,
	ShortAnswer,
}

func QuestionTypesAsStringSlice() []string {
	result := make([]string, len(allQuestionTypes))
	for i, qt := range allQuestionTypes {
		result[i] = string(qt)
	}
	return result
}

// CanonicalizeQuestionType accepts "mcq", "multiple_choice", "True/False" and similar spellings.
func CanonicalizeQuestionType(input string) (QuestionType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer("_", "-", " ", "-", "/", "-").Replace(normalized)

	switch normalized {
	case "mcq", "mc", "multiple-choice", "multiplechoice", "choice":
		return MultipleChoice, true
	case "tf", "true-false", "truefalse", "boolean":
		return TrueFalse, true
	case "short", "short-answer", "shortanswer", "open":
		return ShortAnswer, true
	}
	return "", false
}
