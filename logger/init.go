package logger

import (
	"io"
	"os"
	"regexp"
	"strings"
)

// LogLevel defines the level of logging
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// EnvLevel is the environment variable consulted by GetLevelFromEnv.
const EnvLevel = "RESULTCACHE_LOG_LEVEL"

// ParseLevel converts a level name (case-insensitive) into a LogLevel. The
// second return value is false for unknown names.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "none", "off":
		return LevelNone, true
	}
	return LevelInfo, false
}

// GetLevelFromEnv will look at the environment var `RESULTCACHE_LOG_LEVEL` and convert it into the appropriate LogLevel.
// Unset or invalid values yield LevelInfo.
func GetLevelFromEnv() LogLevel {
	level, _ := ParseLevel(os.Getenv(EnvLevel))
	return level
}

type Sink io.Writer

// Logger is an interface for logging
type Logger interface {
	// With will return a new logger using metadata as the base context
	With(metadata map[string]interface{}) Logger
	// WithPrefix will return a new logger with a prefix prepended to the message
	WithPrefix(prefix string) Logger
	// Trace level logging
	Trace(msg string, args ...interface{})
	// Debug level logging
	Debug(msg string, args ...interface{})
	// Info level logging
	Info(msg string, args ...interface{})
	// Warning level logging
	Warn(msg string, args ...interface{})
	// Error level logging
	Error(msg string, args ...interface{})
	// IsLevelEnabled returns true if the given log level is enabled
	IsLevelEnabled(level LogLevel) bool
}

// WithKV returns a logger carrying a single extra metadata field.
func WithKV(log Logger, key string, value interface{}) Logger {
	return log.With(map[string]interface{}{key: value})
}

// NewNoop returns a Logger that discards everything.
func NewNoop() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (n noopLogger) With(map[string]interface{}) Logger { return n }
func (n noopLogger) WithPrefix(string) Logger           { return n }
func (noopLogger) Trace(string, ...interface{})         {}
func (noopLogger) Debug(string, ...interface{})         {}
func (noopLogger) Info(string, ...interface{})          {}
func (noopLogger) Warn(string, ...interface{})          {}
func (noopLogger) Error(string, ...interface{})         {}
func (noopLogger) IsLevelEnabled(LogLevel) bool         { return false }

var ansiColorStripper = regexp.MustCompile("\x1b\\[[0-9;]*[mK]")
