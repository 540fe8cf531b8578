package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/llm"
)

// Generator is the model call with its fallback policy; *llm.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (llm.Output, error)
}

type GenerateStage struct {
	Generator Generator
	Logger    *slog.Logger
}

func NewGenerateStage(g Generator, logger *slog.Logger) *GenerateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateStage{Generator: g, Logger: logger}
}

func (s *GenerateStage) Run(ctx context.Context, prompt string) (llm.Output, error) {
	out, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		return out, common.Classify(common.KindGeneration, err)
	}
	return out, nil
}

// FormatStage repairs the raw model text and normalizes it into questions.
type FormatStage struct {
	Logger *slog.Logger
}

func NewFormatStage(logger *slog.Logger) *FormatStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormatStage{Logger: logger}
}

func (s *FormatStage) Run(raw string) ([]entity.Question, llm.Report, error) {
	arr, err := llm.RepairAndParse(raw)
	if err != nil {
		s.Logger.Warn("pipeline.format.parse_failed", "raw_chars", len(raw), "error", err)
		return nil, llm.Report{}, common.Classify(common.KindParse, err)
	}
	qs, rep, err := llm.Normalize(arr, s.Logger)
	if err != nil {
		return nil, rep, common.Classify(common.KindValidation, err)
	}
	return qs, rep, nil
}
