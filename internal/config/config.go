package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
)

// Credential store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	HistorySize   int           `mapstructure:"history_size" yaml:"history_size"`
	TypingTimeout time.Duration `mapstructure:"typing_timeout" yaml:"typing_timeout"`
	ClientBuffer  int           `mapstructure:"client_buffer" yaml:"client_buffer"`

	MaxMessageBytes    int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	CredentialStore string `mapstructure:"credential_store" yaml:"credential_store"`
	DatabasePath    string `mapstructure:"database_path" yaml:"database_path"`
	PasswordHash    string `mapstructure:"password_hash" yaml:"password_hash"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":5000",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		HistorySize:        50,
		TypingTimeout:      3 * time.Second,
		ClientBuffer:       64,
		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 120,
		AllowedOrigins:     []string{"localhost:3000"},
		CredentialStore:    StoreMemory,
		DatabasePath:       "wirechat.db",
		PasswordHash:       auth.HashBlake2b,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.HistorySize != 0 {
		c.HistorySize = other.HistorySize
	}
	if other.TypingTimeout != 0 {
		c.TypingTimeout = other.TypingTimeout
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.CredentialStore != "" {
		c.CredentialStore = other.CredentialStore
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.PasswordHash != "" {
		c.PasswordHash = other.PasswordHash
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("history_size must be positive, got %d", c.HistorySize)
	}
	if c.TypingTimeout <= 0 {
		return fmt.Errorf("typing_timeout must be positive, got %s", c.TypingTimeout)
	}
	if c.ClientBuffer <= 0 {
		return fmt.Errorf("client_buffer must be positive, got %d", c.ClientBuffer)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.RateLimitPerMinute)
	}
	switch c.CredentialStore {
	case StoreMemory:
	case StoreSQLite:
		if c.DatabasePath == "" {
			return errors.New("database_path is required for the sqlite credential store")
		}
	default:
		return fmt.Errorf("unknown credential_store %q", c.CredentialStore)
	}
	if _, err := auth.NewHasher(c.PasswordHash); err != nil {
		return fmt.Errorf("password_hash: %w", err)
	}
	return nil
}
