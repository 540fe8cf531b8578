package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

const name = "gemini"

// Config for the Gemini client.
type Config struct {
	APIKey      string
	Temperature float32
}

// Client implements llm.Completer on the Gemini API. Safe for concurrent use.
type Client struct {
	cfg    Config
	cl     *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{cfg: cfg, cl: cl, logger: logger}, nil
}

func (c *Client) Name() string { return name }

func (c *Client) Close() error { return c.cl.Close() }

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	m := c.cl.GenerativeModel(strings.TrimSpace(model))
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(c.cfg.Temperature),
		ResponseMIMEType: "application/json",
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		pe := toProviderError(model, err)
		c.logger.Warn("llm.gemini.error",
			"model", model, "status", pe.StatusCode, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", pe
	}

	text := firstText(resp)
	c.logger.Debug("llm.gemini.ok", "model", model, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// toProviderError attaches an HTTP-equivalent status so the generator can
// classify overloads and auth failures.
func toProviderError(model string, err error) *llm.ProviderError {
	pe := &llm.ProviderError{Provider: name, Model: model, Err: err}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		pe.StatusCode = gerr.Code
		pe.Message = gerr.Message
		return pe
	}
	if st, ok := status.FromError(err); ok {
		pe.Message = st.Message()
		switch st.Code() {
		case codes.Unavailable:
			pe.StatusCode = http.StatusServiceUnavailable
		case codes.ResourceExhausted:
			pe.StatusCode = http.StatusTooManyRequests
		case codes.Unauthenticated:
			pe.StatusCode = http.StatusUnauthorized
		case codes.PermissionDenied:
			pe.StatusCode = http.StatusForbidden
		case codes.NotFound:
			pe.StatusCode = http.StatusNotFound
		case codes.InvalidArgument:
			pe.StatusCode = http.StatusBadRequest
		case codes.Internal:
			pe.StatusCode = http.StatusInternalServerError
		}
	}
	return pe
}

func ptrFloat32(v float32) *float32 { return &v }
