package entity

import (
	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 50
)

// QuizConfig describes the quiz the caller wants generated.
type QuizConfig struct {
	Title         string                   `json:"title"`
	Course        string                   `json:"course"`
	QuestionCount int                      `json:"questionCount"`
	Difficulty    constants.Difficulty     `json:"difficultyLevel"`
	QuestionTypes []constants.QuestionType `json:"questionTypes"`
}

// Normalized returns a copy with the question count clamped, the difficulty
// defaulted and duplicate question types removed.
func (c QuizConfig) Normalized() QuizConfig {
	out := c
	if out.QuestionCount < MinQuestionCount {
		out.QuestionCount = MinQuestionCount
	}
	if out.QuestionCount > MaxQuestionCount {
		out.QuestionCount = MaxQuestionCount
	}
	if out.Difficulty == "" {
		out.Difficulty = constants.DifficultyMedium
	}
	seen := make(map[constants.QuestionType]struct{}, len(c.QuestionTypes))
	out.QuestionTypes = make([]constants.QuestionType, 0, len(c.QuestionTypes))
	for _, qt := range c.QuestionTypes {
		if _, ok := seen[qt]; ok {
			continue
		}
		seen[qt] = struct{}{}
		out.QuestionTypes = append(out.QuestionTypes, qt)
	}
	return out
}

// Validate rejects configurations the pipeline cannot run with.
func (c QuizConfig) Validate() error {
	types := make([]string, len(c.QuestionTypes))
	for i, qt := range c.QuestionTypes {
		types[i] = string(qt)
	}
	v := common.NewValidator().
		Field("title", c.Title, common.MaxLength(200)).
		Field("course", c.Course, common.MaxLength(200)).
		Field("questionCount", c.QuestionCount, common.IntRange(MinQuestionCount, MaxQuestionCount)).
		Field("difficultyLevel", string(c.Difficulty), common.OneOf(constants.DifficultiesAsStringSlice()...)).
		Field("questionTypes", types, common.NotEmpty, common.OneOf(constants.QuestionTypesAsStringSlice()...))
	return common.ValidateAndReturnError(v)
}
