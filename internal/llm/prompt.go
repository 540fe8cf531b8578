package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

const (
	DefaultMaxPromptChars = 100_000
	truncationMarker      = "\n…(truncated)"
)

// PromptOptions tunes BuildPrompt. Zero value uses the defaults.
type PromptOptions struct {
	MaxChars int // document runes kept in the prompt; <= 0 means DefaultMaxPromptChars
}

type PromptResult struct {
	Prompt        string
	Truncated     bool
	DocumentChars int // runes in the original document text
	UsedChars     int // runes of the document embedded in the prompt
}

// BuildPrompt composes the single instruction string sent to the model: the quiz
// request, the output contract with its JSON Schema, then the document text verbatim.
// It is pure and deterministic.
func BuildPrompt(cfg entity.QuizConfig, text string, opts PromptOptions) PromptResult {
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}

	doc, truncated := truncateRunes(text, maxChars)
	res := PromptResult{
		Truncated:     truncated,
		DocumentChars: utf8.RuneCountInString(text),
		UsedChars:     utf8.RuneCountInString(doc),
	}

	parts := []string{
		"You are an expert teacher writing a quiz from a study document.",
		fmt.Sprintf("Generate exactly %d questions.", cfg.QuestionCount),
		"Difficulty level: " + string(cfg.Difficulty) + ".",
		"Question types: " + describeQuestionTypes(cfg.QuestionTypes) + ".",
	}
	if t := strings.TrimSpace(cfg.Title); t != "" {
		parts = append(parts, "Quiz title: "+t+".")
	}
	if c := strings.TrimSpace(cfg.Course); c != "" {
		parts = append(parts, "Course: "+c+".")
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n\nRequirements:\n")
	b.WriteString("- Return ONLY a JSON array. No prose, no markdown, nothing before or after the array.\n")
	b.WriteString(`- Each element is an object with "id" (string), "text" (string), "options" (array) and "explanation" (string).` + "\n")
	b.WriteString(`- Each option is exactly {"id": string, "text": string, "isCorrect": boolean}.` + "\n")
	b.WriteString(`- Exactly one option per question has "isCorrect": true.` + "\n")
	b.WriteString("- Questions must be answerable from the document below.\n")
	b.WriteString("\nJSON Schema of one array element:\n")
	b.WriteString(mustJSON(BuildQuestionJSONSchema()))
	b.WriteString("\n\nExample:\n")
	b.WriteString(`[{"id":"q1","text":"...","options":[{"id":"a","text":"...","isCorrect":true},{"id":"b","text":"...","isCorrect":false}],"explanation":"..."}]`)
	b.WriteString("\n\nDocument:\n")
	b.WriteString(doc)
	if truncated {
		b.WriteString(truncationMarker)
	}

	res.Prompt = b.String()
	return res
}

func describeQuestionTypes(types []constants.QuestionType) string {
	var out []string
	for _, qt := range types {
		switch qt {
		case constants.MultipleChoice:
			out = append(out, "multiple choice questions with 4 options each")
		case constants.TrueFalse:
			out = append(out, `true/false questions with exactly 2 options ("True" and "False")`)
		case constants.ShortAnswer:
			out = append(out, "short answer questions with a single option holding the expected answer, marked correct")
		}
	}
	if len(out) == 0 {
		return "multiple choice questions with 4 options each"
	}
	return strings.Join(out, "; ")
}

// truncateRunes keeps at most max runes of s, cutting on a rune boundary.
func truncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	i, n := 0, 0
	for i < len(s) && n < max {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	return s[:i], true
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
