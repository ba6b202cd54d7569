package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_POOL_URL", "postgres://localhost/siren")
	t.Setenv("OPENAI_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("provider = %q", cfg.LLMProvider)
	}
	if cfg.PollInterval != 30*time.Minute {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.FailureBackoff != 60*time.Second {
		t.Errorf("failure backoff = %v", cfg.FailureBackoff)
	}
	if cfg.MaxBatch != 50 {
		t.Errorf("max batch = %d", cfg.MaxBatch)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_POOL_URL", "postgres://localhost/siren")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("POLL_INTERVAL", "5m")
	t.Setenv("MAX_BATCH", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Errorf("provider = %q", cfg.LLMProvider)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.MaxBatch != 10 {
		t.Errorf("max batch = %d", cfg.MaxBatch)
	}
}

func TestValidateMissingDatabase(t *testing.T) {
	cfg := &Config{LLMProvider: ProviderOpenAI, OpenAIKey: "sk"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without database URL")
	}
}

func TestValidateProviderCredentials(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", LLMProvider: ProviderOpenAI}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without OpenAI key")
	}

	cfg = &Config{DatabaseURL: "postgres://x", LLMProvider: ProviderGemini}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without Gemini key")
	}

	cfg = &Config{DatabaseURL: "postgres://x", LLMProvider: "other"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestValidateTelegramPair(t *testing.T) {
	cfg := &Config{
		DatabaseURL:   "postgres://x",
		LLMProvider:   ProviderOpenAI,
		OpenAIKey:     "sk",
		TelegramToken: "tok",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for token without chat ID")
	}
}
