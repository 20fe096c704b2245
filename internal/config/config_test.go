package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// withCleanEnv points the config dir at a temp dir and clears the variables
// Load reads, so a developer's own settings cannot leak into a test.
func withCleanEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{
		"TICKETDESK_API_URL",
		"TICKETDESK_HTTP_TIMEOUT",
		"TICKETDESK_CACHE_TTL",
		"TICKETDESK_POLL_INTERVAL",
		"TICKETDESK_BREAKER_FAILURES",
		"TICKETDESK_BREAKER_TIMEOUT",
		"LOG_LEVEL",
		"LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("TICKETDESK_CONFIG_DIR", dir)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := withCleanEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "http://localhost:3000/api" {
		t.Errorf("Expected default API URL, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("Expected config dir %s, got %s", dir, cfg.ConfigDir)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", cfg.HTTPTimeout)
	}
	if cfg.CacheTTL != 15*time.Second {
		t.Errorf("Expected default cache TTL 15s, got %s", cfg.CacheTTL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("Expected default poll interval 30s, got %s", cfg.PollInterval)
	}
	if cfg.BreakerFailures != 5 {
		t.Errorf("Expected default breaker failures 5, got %d", cfg.BreakerFailures)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	withCleanEnv(t)
	t.Setenv("TICKETDESK_API_URL", "tickets.example.com/api/")
	t.Setenv("TICKETDESK_HTTP_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "https://tickets.example.com/api" {
		t.Errorf("Expected normalized URL, got %s", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestLoadConfig_DotEnvInConfigDir(t *testing.T) {
	dir := withCleanEnv(t)
	content := "TICKETDESK_POLL_INTERVAL=45s\nTICKETDESK_BREAKER_FAILURES=3\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TICKETDESK_POLL_INTERVAL")
		os.Unsetenv("TICKETDESK_BREAKER_FAILURES")
	})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("Expected poll interval from .env, got %s", cfg.PollInterval)
	}
	if cfg.BreakerFailures != 3 {
		t.Errorf("Expected breaker failures from .env, got %d", cfg.BreakerFailures)
	}
}

func TestLoadConfig_EnvWinsOverDotEnv(t *testing.T) {
	dir := withCleanEnv(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TICKETDESK_API_URL=http://from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TICKETDESK_API_URL", "http://from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "http://from-env" {
		t.Errorf("Expected env to win, got %s", cfg.APIURL)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"TICKETDESK_HTTP_TIMEOUT":     "0s",
		"TICKETDESK_POLL_INTERVAL":    "-1s",
		"TICKETDESK_BREAKER_FAILURES": "0",
		"TICKETDESK_CACHE_TTL":        "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			withCleanEnv(t)
			t.Setenv(key, value)

			if _, err := Load(""); err == nil {
				t.Errorf("Expected error for %s=%s", key, value)
			}
		})
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigDir(); got != "/tmp/xdg/ticketdesk" {
		t.Errorf("Expected /tmp/xdg/ticketdesk, got %s", got)
	}
}

func TestLoadConfig_ExplicitDirWinsAndSuppliesDotEnv(t *testing.T) {
	withCleanEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TICKETDESK_CACHE_TTL=99s\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TICKETDESK_CACHE_TTL") })

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("Expected config dir %s, got %s", dir, cfg.ConfigDir)
	}
	if cfg.CacheTTL != 99*time.Second {
		t.Errorf("Expected cache TTL from %s/.env, got %s", dir, cfg.CacheTTL)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"localhost:3000/api/":         "https://localhost:3000/api",
		"http://localhost:3000/api":   "http://localhost:3000/api",
		" https://desk.example.com/ ": "https://desk.example.com",
		"":                            "",
	}
	for in, want := range tests {
		if got := NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}
