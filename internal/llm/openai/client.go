package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

const name = "openai"

// Client implements llm.Completer using chat completions.
type Client struct {
	cfg    Config
	api    *openai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{cfg: cfg, api: openai.NewClientWithConfig(oc), logger: logger}
}

func (c *Client) Name() string { return name }

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Debug("llm.openai.start", "req_id", rid, "model", model, "prompt_len", len(prompt), "temp", c.cfg.Temperature)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		pe := toProviderError(model, err)
		c.logger.Warn("llm.openai.error",
			"req_id", rid, "model", model, "status", pe.StatusCode, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", pe
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("llm.openai.no_choices", "req_id", rid, "model", model)
		return "", nil
	}

	content := resp.Choices[0].Message.Content
	c.logger.Info("llm.openai.ok",
		"req_id", rid,
		"model", model,
		"chars", len(content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func toProviderError(model string, err error) *llm.ProviderError {
	pe := &llm.ProviderError{Provider: name, Model: model, Err: err}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.HTTPStatusCode
		pe.Message = apiErr.Message
		return pe
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}
