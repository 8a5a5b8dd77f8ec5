// Package config loads runtime configuration for the Homes client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables HOMES_*, optionally seeded from a .env file
//     with LoadDotEnv.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   REST API base URL
//	-d string   path of the local SQLite database
//	-t int      request timeout (seconds)
//	-l string   log level (debug, info, warn, error)
//
// Environment
//
//	HOMES_API_URL, HOMES_DB_PATH, HOMES_REQUEST_TIMEOUT, HOMES_RETRY_DELAY,
//	HOMES_REQUESTS_PER_SECOND, HOMES_LOG_LEVEL
//
// Durations in the environment use time.ParseDuration syntax ("10s").
//
// # JSON schema
//
// The JSON loader uses timex.Duration, so durations can be strings like
// "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8000/api/v1",
//	  "database_path": "homes.db",
//	  "request_timeout": "10s",
//	  "retry_delay": "1s",
//	  "requests_per_second": 10,
//	  "log_level": "info"
//	}
package config
