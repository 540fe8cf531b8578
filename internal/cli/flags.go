package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

// quizFlags are the quiz options shared by generate, batch and watch.
type quizFlags struct {
	title      string
	course     string
	count      int
	difficulty string
	types      []string
}

func (f *quizFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "quiz title")
	fs.StringVar(&f.course, "course", "", "course name")
	fs.IntVarP(&f.count, "count", "n", 10, fmt.Sprintf("number of questions (%d-%d)", entity.MinQuestionCount, entity.MaxQuestionCount))
	fs.StringVarP(&f.difficulty, "difficulty", "d", string(constants.DifficultyMedium),
		"difficulty: "+strings.Join(constants.DifficultiesAsStringSlice(), ", "))
	fs.StringSliceVarP(&f.types, "types", "t", []string{string(constants.MultipleChoice)},
		"question types: "+strings.Join(constants.QuestionTypesAsStringSlice(), ", "))
}

func (f *quizFlags) reset() {
	*f = quizFlags{
		count:      10,
		difficulty: string(constants.DifficultyMedium),
		types:      []string{string(constants.MultipleChoice)},
	}
}

// config canonicalizes the flag values into a QuizConfig.
// Count clamping is left to the pipeline.
func (f *quizFlags) config() (entity.QuizConfig, error) {
	qc := entity.QuizConfig{
		Title:         strings.TrimSpace(f.title),
		Course:        strings.TrimSpace(f.course),
		QuestionCount: f.count,
	}

	d, ok := constants.CanonicalizeDifficulty(f.difficulty)
	if !ok && strings.TrimSpace(f.difficulty) != "" {
		return qc, common.ValidationError("unknown difficulty "+f.difficulty, common.ErrInvalidInput)
	}
	qc.Difficulty = d

	for _, raw := range f.types {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		qt, ok := constants.CanonicalizeQuestionType(raw)
		if !ok {
			return qc, common.ValidationError("unknown question type "+raw, common.ErrInvalidInput)
		}
		qc.QuestionTypes = append(qc.QuestionTypes, qt)
	}
	return qc, nil
}
