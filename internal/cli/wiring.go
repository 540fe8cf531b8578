package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/extract"
	"github.com/joseph-ayodele/quizgen/internal/llm/provider"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

// Seams replaced in tests.
var (
	newCompleter = provider.New
	newExtractor = func(c extract.Config, logger *slog.Logger) extract.TextExtractor {
		return extract.NewExtractor(c, logger)
	}
)

// app is everything a generating command needs.
type app struct {
	proc    *pipeline.Processor
	runs    repository.RunRepository
	export  *export.Service
	closers []func() error
}

func buildApp(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{}

	db, runs, err := openJournal(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.runs = runs
		a.closers = append(a.closers, func() error { repository.Close(db, logger); return nil })
	}

	backend, closeBackend, err := newCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		a.Close()
		return nil, common.NewAppError("CONFIG_ERROR", "could not create the "+cfg.LLM.Provider+" client", err)
	}
	a.closers = append(a.closers, closeBackend)

	gen := provider.NewGenerator(backend, cfg.LLM, logger)
	ex := newExtractor(extract.Config{
		Pdftotext:        cfg.Extract.Pdftotext,
		FetchTimeout:     cfg.Extract.FetchTimeout,
		ProxyURL:         cfg.Extract.ProxyURL,
		MaxDocumentBytes: cfg.Extract.MaxDocumentBytes,
	}, logger)

	a.proc = pipeline.NewProcessor(logger,
		pipeline.Config{AnalyzeDelay: cfg.Pipeline.AnalyzeDelay, MaxPromptChars: cfg.Pipeline.MaxPromptChars},
		pipeline.NewExtractStage(ex, logger),
		pipeline.NewGenerateStage(gen, logger),
		a.runs,
	)
	a.export = export.NewService(a.runs, logger)

	logger.Debug("cli.app.ready",
		"provider", cfg.LLM.Provider,
		"models", cfg.LLM.Models,
		"journal", a.runs != nil,
	)
	return a, nil
}

// openJournal opens the run journal when DB_URL is set; both results are nil otherwise.
func openJournal(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repository.DB, repository.RunRepository, error) {
	if cfg.Database.DSN == "" {
		return nil, nil, nil
	}
	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open run journal: %w", err)
	}
	if err := repository.HealthCheck(ctx, db, cfg.Database.DialTimeout, logger); err != nil {
		repository.Close(db, logger)
		return nil, nil, fmt.Errorf("run journal unreachable: %w", err)
	}
	runs := repository.NewRunRepository(db, logger)
	if err := runs.EnsureSchema(ctx); err != nil {
		repository.Close(db, logger)
		return nil, nil, err
	}
	return db, runs, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("cli.app.close_error", "error", err)
		}
	}
	a.closers = nil
}

// runError presents a classified pipeline failure to the user.
type runError struct {
	pe *common.PipelineError
}

func (e *runError) Error() string {
	return fmt.Sprintf("%s error: %s", e.pe.Kind, e.pe.UserMessage())
}

func (e *runError) Unwrap() error { return e.pe }

func describeFailure(err error) error {
	var pe *common.PipelineError
	if errors.As(err, &pe) {
		return &runError{pe: pe}
	}
	return err
}
