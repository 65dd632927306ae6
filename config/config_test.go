package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Headless {
		t.Error("expected headless by default")
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.MaxRetries)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("unexpected base URL %q", cfg.BaseURL)
	}
	if cfg.AssistedFormatting() && os.Getenv("OPENAI_API_KEY") == "" {
		t.Error("assisted formatting should be off without a credential")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TM_HEADLESS", "false")
	t.Setenv("TM_MAX_RETRIES", "5")
	t.Setenv("TM_BROWSER_TIMEOUT", "45s")
	t.Setenv("TM_VIEWPORT_WIDTH", "1920")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Headless {
		t.Error("expected headless override to false")
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.MaxRetries)
	}
	if cfg.BrowserTimeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %s", cfg.BrowserTimeout)
	}
	if cfg.ViewportWidth != 1920 {
		t.Errorf("expected viewport width 1920, got %d", cfg.ViewportWidth)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("base_url: https://example.test/search\nmax_retries: 2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TM_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://example.test/search" {
		t.Errorf("expected base URL from file, got %q", cfg.BaseURL)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("expected 2 retries from file, got %d", cfg.MaxRetries)
	}

	// env still wins over the file
	t.Setenv("TM_MAX_RETRIES", "4")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxRetries != 4 {
		t.Errorf("expected env to win, got %d", cfg.MaxRetries)
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{LLMAPIKey: "sk-secret"}
	if cfg.Redacted().LLMAPIKey != "<set>" {
		t.Error("credential should be redacted")
	}
}
