package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/llm"
)

func newTestServer(t *testing.T, status int, body any) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestClient_Complete(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": `[{"id":"q1"}]`}}},
		"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Temperature: 0.7}, nil)

	text, err := c.Complete(context.Background(), "gpt-4o-mini", "make a quiz")

	require.NoError(t, err)
	assert.Equal(t, `[{"id":"q1"}]`, text)
	assert.Equal(t, "gpt-4o-mini", (*got)["model"])
	msgs := (*got)["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "make a quiz", msgs[0].(map[string]any)["content"])
}

func TestClient_CompleteStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		overloaded bool
		auth       bool
	}{
		{"overloaded", http.StatusServiceUnavailable, true, false},
		{"rate limited", http.StatusTooManyRequests, true, false},
		{"bad key", http.StatusUnauthorized, false, true},
		{"unknown model", http.StatusNotFound, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tc.status, map[string]any{
				"error": map[string]any{"message": "upstream says no", "type": "error"},
			})
			c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)

			_, err := c.Complete(context.Background(), "gpt-4o", "p")

			var pe *llm.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.status, pe.StatusCode)
			assert.Equal(t, tc.overloaded, llm.IsOverloaded(err))
			assert.Equal(t, tc.auth, llm.IsAuthFailure(err))
			assert.Equal(t, tc.auth, errors.Is(err, common.ErrUnauthorized))
		})
	}
}
