// Package provider builds the configured llm backend and generator.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/llm/gemini"
	"github.com/joseph-ayodele/quizgen/internal/llm/httpapi"
	"github.com/joseph-ayodele/quizgen/internal/llm/openai"
)

// New returns the backend for cfg.Provider and a func releasing its resources.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Provider {
	case common.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, Temperature: cfg.Temperature}, logger)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.CallTimeout,
		}, logger), noop, nil
	case common.ProviderHTTP:
		c, err := httpapi.NewClient(httpapi.Config{
			URL:         cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Temperature: cfg.Temperature,
		}, &http.Client{Timeout: cfg.CallTimeout}, logger)
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown provider %q: %w", cfg.Provider, common.ErrInvalidInput)
	}
}

// NewGenerator wires backend into a Generator using the retry and rate settings in cfg.
func NewGenerator(backend llm.Completer, cfg common.LLMConfig, logger *slog.Logger, opts ...llm.GeneratorOption) *llm.Generator {
	opts = append([]llm.GeneratorOption{llm.WithRateLimit(cfg.RateLimit, cfg.RateBurst)}, opts...)
	return llm.NewGenerator(backend, llm.GeneratorConfig{
		Models:       cfg.Models,
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
		CallTimeout:  cfg.CallTimeout,
	}, logger, opts...)
}
