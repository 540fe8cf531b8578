// Package httpapi talks to a generic text-generation endpoint:
// POST {"model","prompt","temperature"} and read back {"text"}.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

const name = "http"

type Config struct {
	URL         string
	APIKey      string // sent as a Bearer token when set
	Temperature float32
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("LLM_BASE_URL is required for the http provider")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

func (c *Client) Name() string { return name }

type request struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature"`
}

type response struct {
	Text string `json:"text"`
}

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	var out response
	err := llm.PostJSON(ctx, c.http, c.cfg.URL, request{Model: model, Prompt: prompt, Temperature: c.cfg.Temperature}, &out, headers, c.logger)
	if err != nil {
		pe := &llm.ProviderError{Provider: name, Model: model, Err: err}
		var se *llm.HTTPStatusError
		if errors.As(err, &se) {
			pe.StatusCode = se.StatusCode
			pe.Message = se.Body
		}
		return "", pe
	}
	return out.Text, nil
}
