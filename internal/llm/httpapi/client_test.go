package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(response{Text: req.Model + ":" + req.Prompt})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, APIKey: "k"}, srv.Client(), nil)
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "m1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "m1:hello", text)
}

func TestClient_CompleteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL}, nil, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "m1", "hello")

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
	assert.Contains(t, pe.Message, "overloaded")
	assert.True(t, llm.IsOverloaded(err))
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, nil, nil)
	assert.Error(t, err)
}
