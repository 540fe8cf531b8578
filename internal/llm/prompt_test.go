package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

func quizConfig(types ...constants.QuestionType) entity.QuizConfig {
	return entity.QuizConfig{
		QuestionCount: 7,
		Difficulty:    constants.DifficultyHard,
		QuestionTypes: types,
	}
}

func TestBuildPrompt_QuestionTypes(t *testing.T) {
	const (
		mcq   = "multiple choice questions with 4 options each"
		tf    = `true/false questions with exactly 2 options ("True" and "False")`
		short = "short answer questions with a single option holding the expected answer, marked correct"
	)
	tests := []struct {
		name  string
		types []constants.QuestionType
		want  string
	}{
		{"multiple choice", []constants.QuestionType{constants.MultipleChoice}, mcq},
		{"true false", []constants.QuestionType{constants.TrueFalse}, tf},
		{"short answer", []constants.QuestionType{constants.ShortAnswer}, short},
		{"mixed keeps order", []constants.QuestionType{constants.TrueFalse, constants.ShortAnswer, constants.MultipleChoice}, tf + "; " + short + "; " + mcq},
		{"none falls back to multiple choice", nil, mcq},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := BuildPrompt(quizConfig(tc.types...), "doc", PromptOptions{})
			assert.Contains(t, res.Prompt, "Question types: "+tc.want+".")
		})
	}
}

func TestBuildPrompt_ContractAndParameters(t *testing.T) {
	res := BuildPrompt(quizConfig(constants.MultipleChoice), "Paris is the capital of France.", PromptOptions{})
	p := res.Prompt

	assert.Contains(t, p, "Generate exactly 7 questions.")
	assert.Contains(t, p, "Difficulty level: hard.")
	assert.Contains(t, p, "Return ONLY a JSON array.")
	assert.Contains(t, p, `Exactly one option per question has "isCorrect": true.`)
	assert.Contains(t, p, mustJSON(BuildQuestionJSONSchema()))
	assert.True(t, strings.HasSuffix(p, "Document:\nParis is the capital of France."))
	assert.NotContains(t, p, "Quiz title:")
	assert.NotContains(t, p, "Course:")
	assert.False(t, res.Truncated)
	assert.Equal(t, res.DocumentChars, res.UsedChars)
}

func TestBuildPrompt_TitleAndCourse(t *testing.T) {
	cfg := quizConfig(constants.MultipleChoice)
	cfg.Title = "  Capitals "
	cfg.Course = "Geography 101"

	p := BuildPrompt(cfg, "doc", PromptOptions{}).Prompt

	assert.Contains(t, p, "Quiz title: Capitals.")
	assert.Contains(t, p, "Course: Geography 101.")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	cfg := quizConfig(constants.TrueFalse, constants.MultipleChoice)
	a := BuildPrompt(cfg, "same text", PromptOptions{})
	b := BuildPrompt(cfg, "same text", PromptOptions{})
	assert.Equal(t, a, b)
}

func TestBuildPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	text := "héllo wörld ☃☃"

	res := BuildPrompt(quizConfig(constants.MultipleChoice), text, PromptOptions{MaxChars: 4})

	require.True(t, res.Truncated)
	assert.Equal(t, utf8.RuneCountInString(text), res.DocumentChars)
	assert.Equal(t, 4, res.UsedChars)
	assert.True(t, utf8.ValidString(res.Prompt))
	assert.True(t, strings.HasSuffix(res.Prompt, "Document:\nhéll"+truncationMarker))
}

func TestBuildPrompt_DefaultLimit(t *testing.T) {
	text := strings.Repeat("a", DefaultMaxPromptChars+1)

	res := BuildPrompt(quizConfig(constants.MultipleChoice), text, PromptOptions{})

	assert.True(t, res.Truncated)
	assert.Equal(t, DefaultMaxPromptChars, res.UsedChars)
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in        string
		max       int
		want      string
		truncated bool
	}{
		{"abc", 3, "abc", false},
		{"abcd", 3, "abc", true},
		{"日本語テキスト", 3, "日本語", true},
		{"☃", 1, "☃", false},
		{"", 5, "", false},
	}
	for _, tc := range tests {
		got, truncated := truncateRunes(tc.in, tc.max)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.truncated, truncated, tc.in)
	}
}
