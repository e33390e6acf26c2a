package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DATABASE_PATH", "CORS_ALLOWED_ORIGINS", "LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL",
	"OPENAI_BASE_URL", "GEMINI_API_KEY", "GEMINI_MODEL", "LLM_TIMEOUT_SECONDS", "CONTEXT_PARAGRAPH_RADIUS",
	"CONTEXT_MIN_LENGTH", "BULK_UPDATE_CONCURRENCY", "REQUEST_TIMEOUT_SECONDS", "LOG_LEVEL",
}

// clearEnv blanks every key; viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "loreboard.db", cfg.DatabasePath)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "gpt-4", cfg.OpenAIModel)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.ContextParagraphRadius)
	assert.Equal(t, 500, cfg.ContextMinLength)
	assert.Equal(t, 4, cfg.BulkUpdateConcurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadConfig_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://lore.example ,")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("CONTEXT_PARAGRAPH_RADIUS", "0")
	t.Setenv("BULK_UPDATE_CONCURRENCY", "8")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000", "https://lore.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 0, cfg.ContextParagraphRadius)
	assert.Equal(t, 8, cfg.BulkUpdateConcurrency)

	llmCfg := cfg.LLMConfig()
	assert.Equal(t, "gemini", llmCfg.Provider)
	assert.Equal(t, "g-key", llmCfg.GeminiAPIKey)
}

func TestLoadConfig_InvalidIntegersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BULK_UPDATE_CONCURRENCY", "many")
	t.Setenv("LLM_TIMEOUT_SECONDS", "-5")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.BulkUpdateConcurrency)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "llama")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "unsupported LLM_PROVIDER")
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "loreboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_path: /tmp/story.db\nopenai_model: gpt-4o\n"), 0o644))
	t.Setenv("OPENAI_MODEL", "gpt-4.1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/story.db", cfg.DatabasePath)
	assert.Equal(t, "gpt-4.1", cfg.OpenAIModel)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
