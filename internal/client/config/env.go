package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvAPIURL            = "HOMES_API_URL"
	EnvDatabasePath      = "HOMES_DB_PATH"
	EnvRequestTimeout    = "HOMES_REQUEST_TIMEOUT"
	EnvRetryDelay        = "HOMES_RETRY_DELAY"
	EnvRequestsPerSecond = "HOMES_REQUESTS_PER_SECOND"
	EnvLogLevel          = "HOMES_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func parseEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		cfg.APIBaseURL = v
	}
	if v, ok := os.LookupEnv(EnvDatabasePath); ok && v != "" {
		cfg.DatabasePath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if err := envDuration(EnvRequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := envDuration(EnvRetryDelay, &cfg.RetryDelay); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvRequestsPerSecond); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestsPerSecond, err)
		}
		cfg.RequestsPerSecond = f
	}
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
