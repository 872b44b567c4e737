package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Editor    EditorConfig
	Seed      SeedConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// EditorConfig holds editor session and bridge tuning.
type EditorConfig struct {
	AutosaveDebounce time.Duration `envconfig:"AUTOSAVE_DEBOUNCE" default:"700ms"`
	SerializeTimeout time.Duration `envconfig:"SERIALIZE_TIMEOUT" default:"3s"`
	SurfaceWidth     int           `envconfig:"SURFACE_WIDTH" default:"800"`
}

// SeedConfig holds starter component seeding configuration.
type SeedConfig struct {
	Dir     string `envconfig:"SEED_DIR" default:"./seed"`
	Enabled bool   `envconfig:"SEED_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Editor: EditorConfig{
			AutosaveDebounce: 700 * time.Millisecond,
			SerializeTimeout: 3 * time.Second,
			SurfaceWidth:     800,
		},
		Seed: SeedConfig{
			Dir:     "./seed",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
