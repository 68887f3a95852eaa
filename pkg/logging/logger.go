// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is attached to every entry as the "service" field when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Output:  os.Stderr,
		Service: "cms-client",
	}
}

// Setup configures the global zerolog logger and returns it.
// Loggers created with NewLogger afterwards inherit its settings.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level. Unknown levels map to info.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithOperation scopes logger to one logical API operation.
func WithOperation(logger zerolog.Logger, operation, requestID string) zerolog.Logger {
	return logger.With().
		Str("operation", operation).
		Str("request_id", requestID).
		Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Request completion (status, attempts, duration)
//   - Cache invalidation (resource, entries dropped)
//   - Quota state updates while healthy
//
// Info: Normal operation events
//   - Requests that succeeded after a retry
//   - Batch page fetches
//   - Proxy startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Retry attempts
//   - Quota low (throttling) or exhausted (waiting for reset)
//   - Quota store errors (request sent anyway)
//
// Error: Error conditions requiring attention
//   - Failed requests (after retries)
//   - Requests blocked by the quota tracker
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package (cms-client, cms, cms-proxy)
//   - operation: logical API operation, for example "content.list"
//   - request_id: X-Request-ID shared by all attempts of one operation
//   - attempt: 1-based attempt number
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network, timeout, quota
//   - remaining: requests left in the quota window
