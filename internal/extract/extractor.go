package extract

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

type Config struct {
	Pdftotext        string        // binary name or absolute path; if empty -> "pdftotext"
	FetchTimeout     time.Duration // per download, default 30s
	ProxyURL         string        // relay prefix for the single fallback attempt
	MaxDocumentBytes int64         // 0 = no limit
	HTTPClient       *http.Client
}

type Extractor struct {
	cfg     Config
	runner  Runner
	fetcher *Fetcher
	logger  *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return NewExtractorWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewExtractorWithRunner is NewExtractor with a custom command runner.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Extractor{
		cfg:     cfg,
		runner:  runner,
		fetcher: NewFetcher(cfg.HTTPClient, cfg.ProxyURL, cfg.FetchTimeout, cfg.MaxDocumentBytes, logger),
		logger:  logger,
	}
}

// Extract loads the document bytes for src, checks the PDF signature and
// returns the page text. Every failure is a classified PipelineError.
func (e *Extractor) Extract(ctx context.Context, src entity.DocumentSource) (Result, error) {
	start := time.Now()
	res := Result{SourceType: src.Kind, Method: "pdftotext"}

	if err := src.Validate(); err != nil {
		return res, common.ExtractionError("invalid document source", err)
	}
	e.logger.Debug("extract.start", "source", src.Kind, "ref", src.Ref())

	data := src.Bytes
	if src.Kind == constants.SourceRemote {
		var err error
		data, err = e.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			return res, err
		}
	}
	res.Bytes = len(data)

	if !HasPDFSignature(data) {
		e.logger.Warn("extract.signature_mismatch", "ref", src.Ref(), "bytes", len(data))
		return res, common.ExtractionError("the file is not a PDF document", common.ErrInvalidSignature)
	}
	if e.cfg.MaxDocumentBytes > 0 && int64(len(data)) > e.cfg.MaxDocumentBytes {
		return res, common.ExtractionError((&sizeError{limit: e.cfg.MaxDocumentBytes}).Error(), common.ErrInvalidInput)
	}

	text, pages, warns, err := e.pdfToText(ctx, data)
	res.Pages = pages
	res.Warnings = warns
	res.Duration = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return res, common.ExtractionError("text extraction was cancelled", ctx.Err())
		}
		return res, common.ExtractionError(err.Error(), err)
	}
	if strings.TrimSpace(text) == "" {
		return res, common.ExtractionError("no text could be extracted; the PDF is likely image-based or password-protected", common.ErrEmptyDocument)
	}
	res.Text = text

	e.logger.Info("extract.ok",
		"ref", src.Ref(),
		"pages", pages,
		"chars", len(text),
		"warnings", len(warns),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
