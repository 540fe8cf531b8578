package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

// ProgressFunc observes stage transitions. It is called synchronously on the
// run's goroutine and must not block.
type ProgressFunc func(entity.ProcessingStage)

var stageProgress = map[constants.Stage]entity.ProcessingStage{
	constants.StageExtracting: {Stage: constants.StageExtracting, Message: "Extracting text from document", Progress: 10},
	constants.StageAnalyzing:  {Stage: constants.StageAnalyzing, Message: "Analyzing content", Progress: 35},
	constants.StageGenerating: {Stage: constants.StageGenerating, Message: "Generating questions", Progress: 60},
	constants.StageFormatting: {Stage: constants.StageFormatting, Message: "Formatting questions", Progress: 90},
}

var quizReady = entity.ProcessingStage{Stage: constants.StageFormatting, Message: "Quiz ready", Progress: 100}

type reporter struct {
	fn     ProgressFunc
	logger *slog.Logger
}

func (r reporter) enter(stage constants.Stage) {
	r.send(stageProgress[stage])
}

func (r reporter) done() {
	r.send(quizReady)
}

func (r reporter) send(ev entity.ProcessingStage) {
	r.logger.Debug("pipeline.stage", "stage", ev.Stage, "progress", ev.Progress)
	if r.fn != nil {
		r.fn(ev)
	}
}
