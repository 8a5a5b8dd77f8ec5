package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the Homes client.
type Config struct {
	APIBaseURL        string        `validate:"required,url"`
	DatabasePath      string        `validate:"required"`
	RequestTimeout    time.Duration `validate:"gt=0"`
	RetryDelay        time.Duration `validate:"gt=0"`
	RequestsPerSecond float64       `validate:"gte=0"`
	LogLevel          string        `validate:"oneof=debug info warn warning error"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api/v1"
	c.DatabasePath = "homes.db"
	c.RequestTimeout = 10 * time.Second
	c.RetryDelay = time.Second
	c.RequestsPerSecond = 10
	c.LogLevel = "info"
}

// Validate checks that every field is usable.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load builds a Config from defaults, the environment, an optional JSON
// file and the flags in args (without the program name). Later sources
// take precedence over earlier ones.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
