package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/extract"
)

type ExtractStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{TextExtractor: tx, Logger: logger}
}

// Run turns the document into text. Failures keep the kind the extractor gave
// them (network for fetch problems) and default to extraction.
func (s *ExtractStage) Run(ctx context.Context, src entity.DocumentSource) (extract.Result, error) {
	res, err := s.TextExtractor.Extract(ctx, src)
	if err != nil {
		return res, common.Classify(common.KindExtraction, err)
	}
	for _, w := range res.Warnings {
		s.Logger.Warn("pipeline.extract.warning", "ref", src.Ref(), "warning", w)
	}
	return res, nil
}
