package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
	DefaultCallTimeout  = 60 * time.Second
)

// GeneratorConfig is the injected fallback policy.
type GeneratorConfig struct {
	Models       []string // tried in order, never concurrently
	MaxRetries   int      // attempts per model
	InitialDelay time.Duration
	CallTimeout  time.Duration // per upstream call
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type GeneratorOption func(*Generator)

// WithSleeper replaces the backoff sleep, mainly for tests.
func WithSleeper(s Sleeper) GeneratorOption {
	return func(g *Generator) {
		if s != nil {
			g.sleep = s
		}
	}
}

// WithRateLimit caps upstream calls per second across all runs sharing the generator.
func WithRateLimit(perSecond float64, burst int) GeneratorOption {
	return func(g *Generator) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// Output is a successful generation.
type Output struct {
	Text     string
	Model    string
	Attempts int // upstream calls made, including failed ones
}

// Generator walks the model fallback order with bounded retries and
// exponential backoff on overload errors.
type Generator struct {
	backend Completer
	cfg     GeneratorConfig
	sleep   Sleeper
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewGenerator(backend Completer, cfg GeneratorConfig, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	g := &Generator{backend: backend, cfg: cfg, sleep: sleepCtx, logger: logger}
	for _, o := range opts {
		o(g)
	}
	return g
}

// BackoffDelay is the wait after a failed attempt: initial * 2^attempt.
func BackoffDelay(initial time.Duration, attempt int) time.Duration {
	return initial << attempt
}

// genState is the fallback state machine position.
type genState struct {
	model   int
	attempt int
	calls   int
	lastErr error
}

// Generate sends prompt through the fallback policy. Failures are generation-kind
// PipelineErrors carrying the last upstream error.
func (g *Generator) Generate(ctx context.Context, prompt string) (Output, error) {
	if len(g.cfg.Models) == 0 {
		return Output{}, common.GenerationError("no models are configured", common.ErrInvalidInput)
	}
	reqID := uuid.New().String()
	log := common.ContextLogger(ctx, g.logger)
	start := time.Now()
	st := genState{}

	for st.model = 0; st.model < len(g.cfg.Models); st.model++ {
		model := g.cfg.Models[st.model]
		for st.attempt = 0; st.attempt < g.cfg.MaxRetries; st.attempt++ {
			if err := ctx.Err(); err != nil {
				return Output{}, common.GenerationError("generation was cancelled", err)
			}
			if g.limiter != nil {
				if err := g.limiter.Wait(ctx); err != nil {
					return Output{}, common.GenerationError("generation was cancelled", err)
				}
			}

			st.calls++
			log.Debug("llm.generate.attempt",
				"req_id", reqID, "backend", g.backend.Name(), "model", model, "attempt", st.attempt+1)

			text, err := g.call(ctx, model, prompt)
			if err == nil {
				log.Info("llm.generate.ok",
					"req_id", reqID,
					"model", model,
					"attempts", st.calls,
					"chars", len(text),
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return Output{Text: text, Model: model, Attempts: st.calls}, nil
			}
			st.lastErr = err

			if ctx.Err() != nil {
				return Output{}, common.GenerationError("generation was cancelled", ctx.Err())
			}
			if !IsOverloaded(err) {
				log.Warn("llm.generate.fallback",
					"req_id", reqID, "model", model, "attempt", st.attempt+1, "error", err)
				break
			}

			delay := BackoffDelay(g.cfg.InitialDelay, st.attempt)
			log.Warn("llm.generate.retry",
				"req_id", reqID, "model", model, "attempt", st.attempt+1, "delay_ms", delay.Milliseconds(), "error", err)
			if err := g.sleep(ctx, delay); err != nil {
				return Output{}, common.GenerationError("generation was cancelled", err)
			}
		}
	}

	log.Error("llm.generate.exhausted",
		"req_id", reqID,
		"models", strings.Join(g.cfg.Models, ","),
		"attempts", st.calls,
		"error", st.lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Output{}, common.GenerationError(exhaustedMessage(st.lastErr), st.lastErr)
}

func (g *Generator) call(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()
	text, err := g.backend.Complete(callCtx, model, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: g.backend.Name(), Model: model, Err: common.ErrEmptyResponse}
	}
	return text, nil
}

func exhaustedMessage(err error) string {
	switch {
	case IsAuthFailure(err):
		return "the AI service rejected the request; check the API key and model configuration or contact support"
	case IsOverloaded(err):
		return "the AI service is overloaded, please try again later"
	default:
		return "the AI service failed to generate a quiz"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
