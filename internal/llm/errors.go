package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

// ProviderError is an upstream failure reported by a backend.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int // HTTP status, 0 when unknown
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Model, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Model, msg)
}

// Unwrap exposes the cause and, for 401/403, common.ErrUnauthorized.
func (e *ProviderError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		errs = append(errs, common.ErrUnauthorized)
	}
	return errs
}

var overloadHints = []string{"overloaded", "unavailable", "rate limit", "try again later", "resource exhausted", "503", "429"}

// IsOverloaded reports whether err is a transient upstream condition that is
// worth a backoff and retry against the same model.
func IsOverloaded(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		switch pe.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		if pe.StatusCode/100 == 4 {
			return false
		}
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range overloadHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsAuthFailure reports whether err is a credential or permission problem.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrUnauthorized) {
		return true
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return true
		}
	}
	return false
}
