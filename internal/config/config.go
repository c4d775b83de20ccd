package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port            string
	LogLevel        string
	DefaultProvider string

	OpenAIKey     string
	AnthropicKey  string
	PerplexityKey string
	GeminiKey     string

	OpenAIBaseURL     string
	AnthropicBaseURL  string
	PerplexityBaseURL string
	GeminiBaseURL     string

	RequestTimeout time.Duration
	UploadDir      string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() (Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	timeout, err := getDuration("GENERATION_TIMEOUT", 3*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultProvider:   strings.ToLower(getEnv("FLASHCARD_PROVIDER", "openai")),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:      os.Getenv("ANTHROPIC_API_KEY"),
		PerplexityKey:     os.Getenv("PERPLEXITY_API_KEY"),
		GeminiKey:         os.Getenv("GEMINI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		AnthropicBaseURL:  os.Getenv("ANTHROPIC_BASE_URL"),
		PerplexityBaseURL: os.Getenv("PERPLEXITY_BASE_URL"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		RequestTimeout:    timeout,
		UploadDir:         getEnv("UPLOAD_DIR", "./data/uploads"),
	}

	return cfg, nil
}

// Credential returns the server-side API key configured for provider, or "".
func (c Config) Credential(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "perplexity":
		return c.PerplexityKey
	case "gemini":
		return c.GeminiKey
	}
	return ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: duration must be positive", key)
	}
	return d, nil
}
