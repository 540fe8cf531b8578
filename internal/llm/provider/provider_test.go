package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := New(ctx, common.LLMConfig{Provider: common.ProviderOpenAI, APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	assert.NoError(t, closeFn())

	c, _, err = New(ctx, common.LLMConfig{Provider: common.ProviderHTTP, BaseURL: "http://localhost:9/generate"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http", c.Name())

	_, _, err = New(ctx, common.LLMConfig{Provider: common.ProviderHTTP}, nil)
	assert.Error(t, err)

	_, _, err = New(ctx, common.LLMConfig{Provider: common.ProviderGemini}, nil)
	assert.Error(t, err)

	_, closeFn, err = New(ctx, common.LLMConfig{Provider: "bard"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.NoError(t, closeFn())
}
