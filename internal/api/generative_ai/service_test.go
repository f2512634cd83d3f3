package generativeAI

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIClient_WithoutAPIKey(t *testing.T) {
	ctx := context.Background()
	client, err := NewAIClient(ctx, "", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.False(t, client.Configured())
	assert.Equal(t, defaultModel, client.model)

	_, err = client.GenerateContent(ctx, "hello", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.Chat(ctx, nil, "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
