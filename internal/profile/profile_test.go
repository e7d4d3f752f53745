package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := FromEnv("0.1.0")

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 8000, p.Port)
	assert.Equal(t, "https://api.openai.com/v1", p.OpenAIBaseURL)
	assert.Equal(t, "gpt-4.1", p.ChatModel)
	assert.Equal(t, "gpt-4.1-mini", p.MiniModel)
	assert.Equal(t, 4096, p.MaxTokens)
	assert.InDelta(t, 0.7, p.Temperature, 1e-9)
	assert.Equal(t, 8000, p.MemoryMaxTokens)
	assert.Equal(t, "0.1.0", p.Version)
	assert.True(t, p.IsDev())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("UNIQORN_MODE", "prod")
	t.Setenv("UNIQORN_PORT", "9090")
	t.Setenv("UNIQORN_OPENAI_API_KEY", "sk-test")
	t.Setenv("UNIQORN_CHAT_MODEL", "gpt-5")
	t.Setenv("UNIQORN_MEMORY_MAX_TOKENS", "2000")
	t.Setenv("UNIQORN_NEWS_API_KEY", "news-key")

	p := FromEnv("0.1.0")
	assert.Equal(t, "prod", p.Mode)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, "sk-test", p.OpenAIAPIKey)
	assert.Equal(t, "gpt-5", p.ChatModel)
	assert.Equal(t, 2000, p.MemoryMaxTokens)
	assert.Equal(t, "news-key", p.NewsAPIKey)
	assert.False(t, p.IsDev())
}

func TestValidate(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		p := FromEnv("0.1.0")
		require.Error(t, p.Validate())
	})

	t.Run("rejects bad port", func(t *testing.T) {
		t.Setenv("UNIQORN_OPENAI_API_KEY", "sk-test")
		t.Setenv("UNIQORN_PORT", "-1")
		p := FromEnv("0.1.0")
		require.Error(t, p.Validate())
	})

	t.Run("normalizes unknown mode", func(t *testing.T) {
		t.Setenv("UNIQORN_OPENAI_API_KEY", "sk-test")
		t.Setenv("UNIQORN_MODE", "staging")
		p := FromEnv("0.1.0")
		require.NoError(t, p.Validate())
		assert.Equal(t, "dev", p.Mode)
	})
}
