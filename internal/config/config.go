package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Database settings
	DatabaseURL string

	// LLM settings
	LLMProvider    string // "openai" or "gemini"
	OpenAIKey      string
	OpenAIEndpoint string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	DailyLLMBudget int // maximum classification calls per day (0 = unlimited)

	// Feed settings
	FeedsConfigPath string
	MaxBatch        int // cap of candidates processed per cycle

	// Polling settings
	PollInterval   time.Duration // sleep between successful cycles
	FailureBackoff time.Duration // fixed pause after a failed cycle
	RetentionDays  int           // delete rows older than this many days (0 = keep forever)

	// Transport settings
	RequestTimeout time.Duration

	// Notification settings (optional)
	TelegramToken  string
	TelegramChatID string

	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		LLMProvider:     ProviderOpenAI,
		OpenAIEndpoint:  "https://api.openai.com/v1/chat/completions",
		OpenAIModel:     "gpt-4o-mini",
		GeminiModel:     "gemini-1.5-flash",
		FeedsConfigPath: "configs/feeds.yaml",
		MaxBatch:        50,
		PollInterval:    30 * time.Minute,
		FailureBackoff:  60 * time.Second,
		RequestTimeout:  30 * time.Second,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_POOL_URL")
	cfg.OpenAIKey = os.Getenv("OPENAI_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = v
	}
	if v := os.Getenv("OPENAI_ENDPOINT"); v != "" {
		cfg.OpenAIEndpoint = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.MaxBatch = getEnvIntOrDefault("MAX_BATCH", cfg.MaxBatch)
	cfg.DailyLLMBudget = getEnvIntOrDefault("DAILY_LLM_BUDGET", 0)
	cfg.RetentionDays = getEnvIntOrDefault("RETENTION_DAYS", 0)
	cfg.PollInterval = getEnvDurationOrDefault("POLL_INTERVAL", cfg.PollInterval)
	cfg.FailureBackoff = getEnvDurationOrDefault("FAILURE_BACKOFF", cfg.FailureBackoff)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)

	if os.Getenv("SIREN_DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// Validate rejects configurations that cannot possibly run. Missing
// credentials are a startup failure, not something to retry at runtime.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_POOL_URL is required")
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be 'openai' or 'gemini', got %q", c.LLMProvider)
	}

	if c.TelegramToken != "" && c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return nil
}
