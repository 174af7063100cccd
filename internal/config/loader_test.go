package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.HistorySize != 50 || cfg.TypingTimeout != 3*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":7000\"\nhistory_size: 10\ncredential_store: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WIRECHAT_ADDR", ":9000")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("env should override file, got %q", cfg.Addr)
	}
	if cfg.HistorySize != 10 || cfg.CredentialStore != StoreSQLite {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.PasswordHash != auth.HashBlake2b {
		t.Fatalf("default not kept: %q", cfg.PasswordHash)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
		{"zero typing timeout", func(c *Config) { c.TypingTimeout = 0 }},
		{"unknown store", func(c *Config) { c.CredentialStore = "redis" }},
		{"sqlite without path", func(c *Config) { c.CredentialStore = StoreSQLite; c.DatabasePath = "" }},
		{"unknown hash", func(c *Config) { c.PasswordHash = "md5" }},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "debug"})

	if cfg.Addr != ":1234" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.HistorySize != 50 {
		t.Fatalf("zero values should not override: %d", cfg.HistorySize)
	}
}

func TestValidateAcceptsEveryHasher(t *testing.T) {
	for _, name := range []string{auth.HashBlake2b, auth.HashBcrypt} {
		cfg := Default()
		cfg.PasswordHash = name
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s should validate: %v", name, err)
		}
	}
}

func TestLoadEnvOverridesKeysMissingFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WIRECHAT_TYPING_TIMEOUT", "5s")
	t.Setenv("WIRECHAT_MAX_MESSAGE_BYTES", "2048")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TypingTimeout != 5*time.Second || cfg.MaxMessageBytes != 2048 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}

	def := Default()
	if cfg.ReadHeaderTimeout != def.ReadHeaderTimeout || cfg.HistorySize != def.HistorySize ||
		cfg.CredentialStore != def.CredentialStore || len(cfg.AllowedOrigins) != len(def.AllowedOrigins) {
		t.Fatalf("defaults not kept for keys missing from file: %+v", cfg)
	}
}
