package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

func TestQuizConfig_NormalizedClampsCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {25, 25}, {50, 50}, {51, 50}, {1000, 50},
	}
	for _, tc := range tests {
		got := QuizConfig{QuestionCount: tc.in}.Normalized()
		assert.Equal(t, tc.want, got.QuestionCount, "input %d", tc.in)
	}
}

func TestQuizConfig_NormalizedDedupesTypes(t *testing.T) {
	cfg := QuizConfig{
		QuestionCount: 5,
		QuestionTypes: []constants.QuestionType{constants.TrueFalse, constants.MultipleChoice, constants.TrueFalse},
	}.Normalized()

	assert.Equal(t, []constants.QuestionType{constants.TrueFalse, constants.MultipleChoice}, cfg.QuestionTypes)
	assert.Equal(t, constants.DifficultyMedium, cfg.Difficulty)
}

func TestQuizConfig_ValidateRejectsEmptyTypes(t *testing.T) {
	cfg := QuizConfig{QuestionCount: 5, Difficulty: constants.DifficultyEasy}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.Contains(t, err.Error(), "questionTypes")
}

func TestDocumentSource_Validate(t *testing.T) {
	assert.NoError(t, NewBinarySource("a.pdf", []byte("%PDF-1.4")).Validate())
	assert.NoError(t, NewRemoteSource(" https://example.com/a.pdf ").Validate())
	assert.Error(t, NewBinarySource("a.pdf", nil).Validate())
	assert.Error(t, NewRemoteSource("").Validate())
	assert.Error(t, DocumentSource{Kind: "carrier"}.Validate())
	assert.Equal(t, "https://example.com/a.pdf", NewRemoteSource(" https://example.com/a.pdf ").Ref())
}

func TestQuizConfig_ValidateRejectsCountOutsideRange(t *testing.T) {
	cfg := QuizConfig{QuestionCount: 0, Difficulty: constants.DifficultyEasy,
		QuestionTypes: []constants.QuestionType{constants.MultipleChoice}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "questionCount")

	assert.NoError(t, cfg.Normalized().Validate())
}

func TestDocumentSource_ValidateBlankURL(t *testing.T) {
	err := NewRemoteSource("   ").Validate()

	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.Contains(t, err.Error(), "url")
}
