// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration. Every field maps to one
// environment variable; there is no config file.
type Config struct {
	// Port is the HTTP listen port (PORT).
	Port int
	// LogLevel is the zap level name (LOG_LEVEL).
	LogLevel string
	// APIKey is the accepted bearer token (API_KEY). Required.
	APIKey string
	// MaxFileSize caps uploads in bytes (MAX_FILE_SIZE).
	MaxFileSize int64
	// MaxConcurrency bounds simultaneously live editors (MAX_DOCUMENT_CONCURRENCY).
	MaxConcurrency int64
	// RequestTimeout is the per-request deadline (REQUEST_TIMEOUT_MS).
	RequestTimeout time.Duration
	// AuthorName / AuthorEmail attribute tracked changes when an edit does
	// not override them (DEFAULT_AUTHOR_NAME / DEFAULT_AUTHOR_EMAIL).
	AuthorName  string
	AuthorEmail string
	// Dev toggles dev-mode router behavior (ENV=dev).
	Dev bool
}

// ErrMissingAPIKey aborts startup: the service never runs unauthenticated.
var ErrMissingAPIKey = errors.New("API_KEY is required")

// Load reads the environment. Defaults follow the service contract: port
// 3000, 50 MiB uploads, 4 concurrent editors, 120s request deadline.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", 3000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_FILE_SIZE", 50<<20)
	v.SetDefault("MAX_DOCUMENT_CONCURRENCY", 4)
	v.SetDefault("REQUEST_TIMEOUT_MS", 120_000)
	v.SetDefault("DEFAULT_AUTHOR_NAME", "Redline Service")
	v.SetDefault("DEFAULT_AUTHOR_EMAIL", "redline@localhost")

	cfg := &Config{
		Port:           v.GetInt("PORT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		APIKey:         v.GetString("API_KEY"),
		MaxFileSize:    v.GetInt64("MAX_FILE_SIZE"),
		MaxConcurrency: v.GetInt64("MAX_DOCUMENT_CONCURRENCY"),
		RequestTimeout: time.Duration(v.GetInt64("REQUEST_TIMEOUT_MS")) * time.Millisecond,
		AuthorName:     v.GetString("DEFAULT_AUTHOR_NAME"),
		AuthorEmail:    v.GetString("DEFAULT_AUTHOR_EMAIL"),
		Dev:            v.GetString("ENV") == "dev",
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxFileSize < 1 {
		return fmt.Errorf("invalid max file size: %d", c.MaxFileSize)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("invalid document concurrency: %d", c.MaxConcurrency)
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request timeout too small: %s", c.RequestTimeout)
	}
	return nil
}
