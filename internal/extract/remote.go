package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
)

const corsGuidance = "could not download the document; the host may block direct access, upload the file directly instead of using a URL"

// Fetcher downloads remote documents. A transport failure on the direct request
// is retried once through the relay proxy when one is configured.
type Fetcher struct {
	client   *http.Client
	proxyURL string
	timeout  time.Duration
	maxBytes int64
	logger   *slog.Logger
}

func NewFetcher(client *http.Client, proxyURL string, timeout time.Duration, maxBytes int64, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, proxyURL: proxyURL, timeout: timeout, maxBytes: maxBytes, logger: logger}
}

// Fetch returns the raw bytes behind rawURL or a classified network/extraction error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, common.NetworkError("the document URL is invalid", fmt.Errorf("parse %q: %w", rawURL, errOrInvalid(err)))
	}

	reqID := uuid.New().String()
	log := common.ContextLogger(ctx, f.logger)
	body, status, err := f.get(ctx, reqID, rawURL)
	if err != nil && status == 0 && ctx.Err() == nil && f.proxyURL != "" {
		log.Warn("extract.remote.proxy_fallback", "req_id", reqID, "url", rawURL, "error", err)
		body, status, err = f.get(ctx, reqID, f.proxyURL+url.QueryEscape(rawURL))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, common.NetworkError("the document download was cancelled", ctx.Err())
		}
		var tooLarge *sizeError
		if errors.As(err, &tooLarge) {
			return nil, common.ExtractionError(tooLarge.Error(), err)
		}
		if status/100 != 2 && status != 0 {
			return nil, common.NetworkError(statusMessage(status), err)
		}
		return nil, common.NetworkError(corsGuidance, err)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, reqID, target string) ([]byte, int, error) {
	log := common.ContextLogger(ctx, f.logger)
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", constants.PDFMimeType)

	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("extract.remote.send_error", "req_id", reqID, "url", target, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn("extract.remote.body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	log.Info("extract.remote.response",
		"req_id", reqID,
		"url", target,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode/100 != 2 {
		return nil, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(raw)) > f.maxBytes {
		return nil, resp.StatusCode, &sizeError{limit: f.maxBytes}
	}
	return raw, resp.StatusCode, nil
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the document URL is invalid"
	case http.StatusForbidden:
		return "access to the document was denied; make sure the link is publicly accessible"
	case http.StatusNotFound:
		return "the document was not found at the given URL"
	default:
		return fmt.Sprintf("the document server returned status %d", status)
	}
}

type sizeError struct {
	limit int64
}

func (e *sizeError) Error() string {
	return fmt.Sprintf("the document is larger than %d MB", e.limit>>20)
}

func errOrInvalid(err error) error {
	if err != nil {
		return err
	}
	return common.ErrInvalidInput
}
