// Package config loads the service configuration from environment variables.
// Every setting has a default except where noted, and the result is
// validated once at startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Limits   LimitsConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Parse    ParseConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default so long NDJSON streams are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// LimitsConfig bounds the work a single request can cause.
type LimitsConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"PARSE_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of parse passes that may run at once
	MaxConcurrent int `env:"PARSE_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a free pass slot
	MaxWaitTime time.Duration `env:"PARSE_MAX_WAIT_TIME" default:"30s"`

	// PassTimeout caps the duration of one parse pass
	PassTimeout time.Duration `env:"PARSE_TIMEOUT" default:"10m"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists proxy CIDRs whose forwarding headers are honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys are the accepted keys, comma-separated.
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ParseConfig holds service-wide parse defaults. They are applied to a
// layout's configuration only where set, before per-request overrides.
type ParseConfig struct {
	Delimiter string `env:"PARSE_DELIMITER"`

	// Comments is a "|"-separated list so that "," can be a comment token.
	Comments []string `env:"PARSE_COMMENTS" sep:"|"`

	Culture  string `env:"PARSE_CULTURE"`
	Encoding string `env:"PARSE_ENCODING"`

	// ErrorMode is one of throw, ignore, report; empty keeps the layout's mode.
	ErrorMode string `env:"PARSE_ERROR_MODE"`

	IgnoreEmptyLines bool `env:"PARSE_IGNORE_EMPTY_LINES" default:"false"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
