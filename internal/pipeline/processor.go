package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

// Config holds orchestrator tuning.
type Config struct {
	AnalyzeDelay   time.Duration // pause in the analyzing stage, 0 skips it
	MaxPromptChars int
}

// Processor coordinates extraction, prompt building, generation and formatting.
type Processor struct {
	Logger   *slog.Logger
	Cfg      Config
	Extract  *ExtractStage
	Generate *GenerateStage
	Format   *FormatStage
	Runs     repository.RunRepository // optional journal
}

func NewProcessor(logger *slog.Logger, cfg Config, extract *ExtractStage, generate *GenerateStage, runs repository.RunRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:   logger,
		Cfg:      cfg,
		Extract:  extract,
		Generate: generate,
		Format:   NewFormatStage(logger),
		Runs:     runs,
	}
}

// Run produces validated questions for src, or exactly one *common.PipelineError.
func (p *Processor) Run(ctx context.Context, src entity.DocumentSource, cfg entity.QuizConfig, onProgress ProgressFunc) ([]entity.Question, error) {
	res, err := p.RunWithResult(ctx, src, cfg, onProgress)
	if err != nil {
		return nil, err
	}
	return res.Questions, nil
}

// RunWithResult is Run plus the run metadata.
func (p *Processor) RunWithResult(ctx context.Context, src entity.DocumentSource, cfg entity.QuizConfig, onProgress ProgressFunc) (entity.RunResult, error) {
	start := time.Now()
	runID := uuid.New()
	ctx = common.WithRunID(ctx, runID.String())
	log := p.Logger.With("run_id", runID)
	rep := reporter{fn: onProgress, logger: log}

	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		log.Warn("pipeline.config.invalid", "error", err)
		return entity.RunResult{}, asPipelineError(common.KindValidation, err)
	}

	j := p.startJournal(ctx, runID, src, cfg, log)
	fail := func(kind common.ErrorKind, err error) (entity.RunResult, error) {
		pe := asPipelineError(kind, err)
		log.Error("pipeline.run.failed",
			"kind", pe.Kind,
			"error", pe.Error(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		j.failure(pe, time.Since(start))
		return entity.RunResult{}, pe
	}

	rep.enter(constants.StageExtracting)
	ext, err := p.Extract.Run(ctx, src)
	if err != nil {
		return fail(common.KindExtraction, err)
	}

	rep.enter(constants.StageAnalyzing)
	if err := p.analyze(ctx); err != nil {
		return fail(common.KindGeneration, common.GenerationError("generation was cancelled", err))
	}
	prompt := llm.BuildPrompt(cfg, ext.Text, llm.PromptOptions{MaxChars: p.Cfg.MaxPromptChars})
	if prompt.Truncated {
		log.Warn("pipeline.prompt.truncated",
			"document_chars", prompt.DocumentChars,
			"used_chars", prompt.UsedChars,
		)
	}

	rep.enter(constants.StageGenerating)
	out, err := p.Generate.Run(ctx, prompt.Prompt)
	if err != nil {
		return fail(common.KindGeneration, err)
	}

	rep.enter(constants.StageFormatting)
	questions, report, err := p.Format.Run(out.Text)
	if err != nil {
		return fail(common.KindParse, err)
	}
	rep.done()

	elapsed := time.Since(start)
	log.Info("pipeline.run.ok",
		"source", src.Kind,
		"ref", src.Ref(),
		"pages", ext.Pages,
		"model", out.Model,
		"attempts", out.Attempts,
		"questions", len(questions),
		"requested", cfg.QuestionCount,
		"dropped", len(report.Dropped),
		"strict", report.Strict,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	j.success(out, len(questions), elapsed)

	return entity.RunResult{
		RunID:     runID,
		Questions: questions,
		Model:     out.Model,
		Attempts:  out.Attempts,
		Pages:     ext.Pages,
		Truncated: prompt.Truncated,
		Elapsed:   elapsed,
	}, nil
}

func (p *Processor) analyze(ctx context.Context) error {
	if p.Cfg.AnalyzeDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Cfg.AnalyzeDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// asPipelineError returns the classified error inside err, or wraps err into kind.
func asPipelineError(kind common.ErrorKind, err error) *common.PipelineError {
	var pe *common.PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	errors.As(common.Classify(kind, err), &pe)
	return pe
}

// journal records the run when a repository is configured. Journal failures
// are logged and never fail the run.
type journal struct {
	runs   repository.RunRepository
	id     uuid.UUID
	ctx    context.Context
	logger *slog.Logger
}

func (p *Processor) startJournal(ctx context.Context, id uuid.UUID, src entity.DocumentSource, cfg entity.QuizConfig, log *slog.Logger) journal {
	j := journal{id: id, ctx: context.WithoutCancel(ctx), logger: log}
	if p.Runs == nil {
		return j
	}
	types := make([]string, len(cfg.QuestionTypes))
	for i, qt := range cfg.QuestionTypes {
		types[i] = string(qt)
	}
	_, err := p.Runs.Start(j.ctx, entity.GenerationRun{
		ID:            id,
		SourceKind:    src.Kind,
		SourceRef:     src.Ref(),
		Title:         cfg.Title,
		Course:        cfg.Course,
		Difficulty:    string(cfg.Difficulty),
		QuestionTypes: strings.Join(types, ","),
		QuestionCount: cfg.QuestionCount,
	})
	if err != nil {
		log.Warn("pipeline.journal.start_failed", "error", err)
		return j
	}
	j.runs = p.Runs
	return j
}

func (j journal) success(out llm.Output, questions int, elapsed time.Duration) {
	if j.runs == nil {
		return
	}
	err := j.runs.FinishSuccess(j.ctx, j.id, repository.RunSuccess{
		Model:     out.Model,
		Attempts:  out.Attempts,
		Questions: questions,
		Elapsed:   elapsed,
	})
	if err != nil {
		j.logger.Warn("pipeline.journal.finish_failed", "error", err)
	}
}

func (j journal) failure(pe *common.PipelineError, elapsed time.Duration) {
	if j.runs == nil {
		return
	}
	err := j.runs.FinishFailure(j.ctx, j.id, repository.RunFailure{
		Kind:    string(pe.Kind),
		Message: pe.Message,
		Elapsed: elapsed,
	})
	if err != nil {
		j.logger.Warn("pipeline.journal.finish_failed", "error", err)
	}
}
