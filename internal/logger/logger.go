package logger

import (
	"fmt"
	"strings"
)

// Logger defines the interface for logging operations across pgdig.
// The decoder never logs; the replication client, monitor and CLI do.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...interface{})

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...interface{})

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...interface{})

	// Error logs an error-level message with the error and optional structured fields.
	Error(msg string, err error, fields ...interface{})
}

// Closeable is an optional interface for loggers that need cleanup.
type Closeable interface {
	Close() error
}

// Level orders log severities.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel accepts debug, info, warn (or warning) and error. Empty means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NoOpLogger is a no-operation logger that discards all messages.
// Used as the default logger for tests and when logging is disabled.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...interface{})        {}
func (NoOpLogger) Info(string, ...interface{})         {}
func (NoOpLogger) Warn(string, ...interface{})         {}
func (NoOpLogger) Error(string, error, ...interface{}) {}

var _ Logger = NoOpLogger{}
