// ABOUTME: Configuration loader for the ticketdesk CLI
// ABOUTME: Loads settings from .env files and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const appName = "ticketdesk"

type Config struct {
	// Backend
	APIURL      string        `env:"TICKETDESK_API_URL" envDefault:"http://localhost:3000/api"`
	HTTPTimeout time.Duration `env:"TICKETDESK_HTTP_TIMEOUT" envDefault:"30s"`

	// Local state: session file and debug log
	ConfigDir string `env:"TICKETDESK_CONFIG_DIR"`

	// Query cache and polling
	CacheTTL     time.Duration `env:"TICKETDESK_CACHE_TTL" envDefault:"15s"`
	PollInterval time.Duration `env:"TICKETDESK_POLL_INTERVAL" envDefault:"30s"`

	// Circuit breaker around the backend
	BreakerFailures uint32        `env:"TICKETDESK_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"TICKETDESK_BREAKER_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads ./.env and <config dir>/.env (without overriding variables
// already set), then parses the environment. A non-empty configDir takes
// precedence over TICKETDESK_CONFIG_DIR and the XDG default.
func Load(configDir string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if configDir == "" {
		configDir = os.Getenv("TICKETDESK_CONFIG_DIR")
	}
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if configDir != "" {
		if err := loadDotEnv(filepath.Join(configDir, ".env")); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ConfigDir = configDir
	cfg.APIURL = NormalizeURL(cfg.APIURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("TICKETDESK_API_URL is required")
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"TICKETDESK_HTTP_TIMEOUT", c.HTTPTimeout},
		{"TICKETDESK_CACHE_TTL", c.CacheTTL},
		{"TICKETDESK_POLL_INTERVAL", c.PollInterval},
		{"TICKETDESK_BREAKER_TIMEOUT", c.BreakerTimeout},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if c.BreakerFailures < 1 || c.BreakerFailures > 100 {
		return fmt.Errorf("TICKETDESK_BREAKER_FAILURES must be between 1 and 100, got %d", c.BreakerFailures)
	}
	return nil
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// NormalizeURL adds https:// when the URL has no scheme and drops trailing slashes
func NormalizeURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
