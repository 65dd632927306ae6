package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://branddb.wipo.int/en/quicksearch"

type Config struct {
	BaseURL        string        `yaml:"base_url"`
	Headless       bool          `yaml:"headless"`
	BrowserTimeout time.Duration `yaml:"browser_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	UserAgent      string        `yaml:"user_agent"`
	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	LogLevel       string        `yaml:"log_level"`
	ProxyURL       string        `yaml:"proxy_url"`
	HistoryDBPath  string        `yaml:"history_db_path"`
	FetchDetails   bool          `yaml:"fetch_details"`
	ScreenshotDir  string        `yaml:"screenshot_dir"`
	LLMModel       string        `yaml:"llm_model"`
	LLMAPIKey      string        `yaml:"-"`
}

// Load builds the effective configuration: defaults, then the optional YAML
// file named by TM_CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:        DefaultBaseURL,
		Headless:       true,
		BrowserTimeout: 120 * time.Second,
		MaxRetries:     3,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1366,
		ViewportHeight: 768,
		LogLevel:       "info",
		HistoryDBPath:  "./data/history.db",
		LLMModel:       "gpt-4o-mini",
	}

	if path := os.Getenv("TM_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.BaseURL = getEnv("TM_BASE_URL", cfg.BaseURL)
	cfg.Headless = getEnvBool("TM_HEADLESS", cfg.Headless)
	cfg.BrowserTimeout = getEnvDuration("TM_BROWSER_TIMEOUT", cfg.BrowserTimeout)
	cfg.MaxRetries = getEnvInt("TM_MAX_RETRIES", cfg.MaxRetries)
	cfg.UserAgent = getEnv("TM_USER_AGENT", cfg.UserAgent)
	cfg.ViewportWidth = getEnvInt("TM_VIEWPORT_WIDTH", cfg.ViewportWidth)
	cfg.ViewportHeight = getEnvInt("TM_VIEWPORT_HEIGHT", cfg.ViewportHeight)
	cfg.LogLevel = getEnv("TM_LOG_LEVEL", cfg.LogLevel)
	cfg.ProxyURL = getEnv("TM_PROXY_URL", cfg.ProxyURL)
	cfg.HistoryDBPath = getEnv("TM_HISTORY_DB", cfg.HistoryDBPath)
	cfg.FetchDetails = getEnvBool("TM_FETCH_DETAILS", cfg.FetchDetails)
	cfg.ScreenshotDir = getEnv("TM_SCREENSHOT_DIR", cfg.ScreenshotDir)
	cfg.LLMModel = getEnv("TM_LLM_MODEL", cfg.LLMModel)
	cfg.LLMAPIKey = getEnv("OPENAI_API_KEY", cfg.LLMAPIKey)

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("TM_MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}

	return cfg, nil
}

// AssistedFormatting reports whether the text-generation credential is set.
func (c *Config) AssistedFormatting() bool {
	return c.LLMAPIKey != ""
}

// Redacted returns a copy safe for printing.
func (c *Config) Redacted() Config {
	out := *c
	if out.LLMAPIKey != "" {
		out.LLMAPIKey = "<set>"
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
