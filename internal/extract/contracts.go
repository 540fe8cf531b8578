package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/quizgen/internal/entity"
)

// TextExtractor is Stage 1: document -> text.
type TextExtractor interface {
	Extract(ctx context.Context, src entity.DocumentSource) (Result, error)
}

type Result struct {
	Text       string
	Pages      int
	Bytes      int
	SourceType string // constants.SourceBinary | constants.SourceRemote
	Method     string // "pdftotext"
	Duration   time.Duration
	Warnings   []string
}
