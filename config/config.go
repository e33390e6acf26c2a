package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/camden-git/loreboardbackend/llm"
)

const (
	defaultPort                   = "8000"
	defaultDatabasePath           = "loreboard.db"
	defaultLLMTimeoutSeconds      = 60
	defaultContextParagraphRadius = 1
	defaultContextMinLength       = 500
	defaultBulkUpdateConcurrency  = 4
	defaultRequestTimeoutSeconds  = 120
	defaultLogLevel               = "info"
)

type Config struct {
	// http server
	Port               string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration

	// database path
	DatabasePath string

	// language model provider
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	LLMTimeout    time.Duration

	// context window and bulk update tuning
	ContextParagraphRadius int
	ContextMinLength       int
	BulkUpdateConcurrency  int

	LogLevel string

	// Warnings collects invalid values that were replaced by defaults.
	Warnings []string
}

// LLMConfig returns the provider settings.
func (c Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:      c.LLMProvider,
		OpenAIAPIKey:  c.OpenAIAPIKey,
		OpenAIModel:   c.OpenAIModel,
		OpenAIBaseURL: c.OpenAIBaseURL,
		GeminiAPIKey:  c.GeminiAPIKey,
		GeminiModel:   c.GeminiModel,
		Timeout:       c.LLMTimeout,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("database_path", defaultDatabasePath)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("llm_provider", llm.ProviderOpenAI)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", llm.DefaultOpenAIModel)
	v.SetDefault("openai_base_url", llm.DefaultOpenAIBaseURL)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", llm.DefaultGeminiModel)
	v.SetDefault("llm_timeout_seconds", defaultLLMTimeoutSeconds)
	v.SetDefault("context_paragraph_radius", defaultContextParagraphRadius)
	v.SetDefault("context_min_length", defaultContextMinLength)
	v.SetDefault("bulk_update_concurrency", defaultBulkUpdateConcurrency)
	v.SetDefault("request_timeout_seconds", defaultRequestTimeoutSeconds)
	v.SetDefault("log_level", defaultLogLevel)
}

// LoadConfig reads settings from the environment and, when configFile is
// set, from that YAML file. Environment variables take precedence.
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file '%s': %w", configFile, err)
		}
	}

	var warnings []string
	getInt := func(key string, defaultVal, min int) int {
		raw := strings.TrimSpace(v.GetString(key))
		if raw == "" {
			return defaultVal
		}
		val, err := strconv.Atoi(raw)
		if err != nil || val < min {
			warnings = append(warnings, fmt.Sprintf("invalid %s '%s', using default %d", strings.ToUpper(key), raw, defaultVal))
			return defaultVal
		}
		return val
	}

	cfg := Config{
		Port:                   strings.TrimSpace(v.GetString("port")),
		CORSAllowedOrigins:     splitList(v.GetString("cors_allowed_origins")),
		RequestTimeout:         time.Duration(getInt("request_timeout_seconds", defaultRequestTimeoutSeconds, 1)) * time.Second,
		DatabasePath:           v.GetString("database_path"),
		LLMProvider:            strings.ToLower(strings.TrimSpace(v.GetString("llm_provider"))),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIModel:            v.GetString("openai_model"),
		OpenAIBaseURL:          v.GetString("openai_base_url"),
		GeminiAPIKey:           v.GetString("gemini_api_key"),
		GeminiModel:            v.GetString("gemini_model"),
		LLMTimeout:             time.Duration(getInt("llm_timeout_seconds", defaultLLMTimeoutSeconds, 1)) * time.Second,
		ContextParagraphRadius: getInt("context_paragraph_radius", defaultContextParagraphRadius, 0),
		ContextMinLength:       getInt("context_min_length", defaultContextMinLength, 0),
		BulkUpdateConcurrency:  getInt("bulk_update_concurrency", defaultBulkUpdateConcurrency, 1),
		LogLevel:               strings.ToLower(v.GetString("log_level")),
	}
	cfg.Warnings = warnings

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DatabasePath == "" {
		return Config{}, errors.New("DATABASE_PATH must not be empty")
	}
	switch cfg.LLMProvider {
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return Config{}, fmt.Errorf("unsupported LLM_PROVIDER '%s'. Must be '%s' or '%s'", cfg.LLMProvider, llm.ProviderOpenAI, llm.ProviderGemini)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
