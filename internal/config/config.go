// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrRevidAPIKeyRequired is returned when REVID_API_KEY is not set.
	ErrRevidAPIKeyRequired = errors.New("config: REVID_API_KEY is required")
	// ErrOpenAIAPIKeyRequired is returned when OPENAI_API_KEY is not set.
	ErrOpenAIAPIKeyRequired = errors.New("config: OPENAI_API_KEY is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// PublicBaseURL is the externally reachable base URL used to build
	// webhook callback URLs handed to the rendering provider.
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080" json:"public_base_url"`

	// Rendering provider settings
	RevidAPIKey  string `env:"REVID_API_KEY, required" json:"-"` // Masked in JSON
	RevidBaseURL string `env:"REVID_BASE_URL, default=https://www.revid.ai/api/public/v2" json:"revid_base_url"`

	// Script generation settings
	OpenAIAPIKey string `env:"OPENAI_API_KEY, required" json:"-"` // Masked in JSON
	OpenAIModel  string `env:"OPENAI_MODEL, default=gpt-4o" json:"openai_model"`

	// Persistence settings. When DatabaseDSN is empty the service runs on
	// in-memory repositories, which is fine for development and tests.
	DatabaseDSN string `env:"DATABASE_DSN" json:"-"`

	// Reconciliation settings
	PollInterval     time.Duration `env:"POLL_INTERVAL, default=5s" json:"poll_interval"`
	WatchAfterSubmit bool          `env:"WATCH_AFTER_SUBMIT, default=true" json:"watch_after_submit"`

	// Optional archive settings: finished renders are re-homed to S3 when
	// a bucket and region are configured.
	TempDir            string `env:"TEMP_DIR, default=/tmp/scriptreel" json:"temp_dir"`
	ArchiveBucket      string `env:"ARCHIVE_S3_BUCKET" json:"archive_s3_bucket,omitempty"`
	ArchiveRegion      string `env:"ARCHIVE_S3_REGION" json:"archive_s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// ArchiveEnabled returns true if S3 archive configuration is provided.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != "" && c.ArchiveRegion != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "REVID_API_KEY") {
			return nil, ErrRevidAPIKeyRequired
		}
		if strings.Contains(err.Error(), "OPENAI_API_KEY") {
			return nil, ErrOpenAIAPIKeyRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.RevidAPIKey == "" {
		return ErrRevidAPIKeyRequired
	}
	if c.OpenAIAPIKey == "" {
		return ErrOpenAIAPIKeyRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, PublicBaseURL: %s, RevidBaseURL: %s, OpenAIModel: %s, PollInterval: %s, WatchAfterSubmit: %t, TempDir: %s, ArchiveBucket: %s, ArchiveRegion: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.PublicBaseURL,
		c.RevidBaseURL,
		c.OpenAIModel,
		c.PollInterval,
		c.WatchAfterSubmit,
		c.TempDir,
		c.ArchiveBucket,
		c.ArchiveRegion,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
