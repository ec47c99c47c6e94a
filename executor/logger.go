package executor

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed information, typically of interest only when diagnosing problems.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for informational messages such as lifecycle changes.
	LogLevelInfo
	// LogLevelWarn is for potentially harmful situations that might require attention.
	LogLevelWarn
	// LogLevelError is for error events that still allow the executor to continue running.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a level name such as "debug" or "WARN" to a
// LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return LogLevelInfo, err
	}
	switch lvl {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return LogLevelDebug, nil
	case zerolog.InfoLevel, zerolog.NoLevel:
		return LogLevelInfo, nil
	case zerolog.WarnLevel:
		return LogLevelWarn, nil
	default:
		return LogLevelError, nil
	}
}

func (l LogLevel) zerologLevel() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger defines the interface for logging within the executor.
// The Logger is optional - if not provided, no logging occurs.
type Logger interface {
	// Log writes a log message at the specified level.
	// The message is formatted using fmt.Sprintf if args are provided.
	Log(level LogLevel, format string, args ...interface{})

	// Debug logs a debug-level message.
	Debug(format string, args ...interface{})

	// Info logs an info-level message.
	Info(format string, args ...interface{})

	// Warn logs a warning-level message.
	Warn(format string, args ...interface{})

	// Error logs an error-level message.
	Error(format string, args ...interface{})
}

// NoOpLogger is a logger that discards all log messages.
// This is the default logger when none is specified.
type NoOpLogger struct{}

// Log implements the Logger interface.
func (n *NoOpLogger) Log(level LogLevel, format string, args ...interface{}) {}

// Debug implements the Logger interface.
func (n *NoOpLogger) Debug(format string, args ...interface{}) {}

// Info implements the Logger interface.
func (n *NoOpLogger) Info(format string, args ...interface{}) {}

// Warn implements the Logger interface.
func (n *NoOpLogger) Warn(format string, args ...interface{}) {}

// Error implements the Logger interface.
func (n *NoOpLogger) Error(format string, args ...interface{}) {}

// ZerologLogger routes executor log messages to a zerolog.Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps zl. Messages are tagged with component=batchexec.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{
		zl: zl.With().Str("component", "batchexec").Logger(),
	}
}

// NewConsoleLogger creates a ZerologLogger that writes human-readable lines
// to stderr, discarding messages below minLevel.
func NewConsoleLogger(minLevel LogLevel) *ZerologLogger {
	return NewWriterLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, minLevel)
}

// NewWriterLogger creates a ZerologLogger that writes JSON lines to w,
// discarding messages below minLevel.
func NewWriterLogger(w io.Writer, minLevel LogLevel) *ZerologLogger {
	zl := zerolog.New(w).Level(minLevel.zerologLevel()).With().Timestamp().Logger()
	return NewZerologLogger(zl)
}

// Log implements the Logger interface.
func (z *ZerologLogger) Log(level LogLevel, format string, args ...interface{}) {
	z.zl.WithLevel(level.zerologLevel()).Msg(fmt.Sprintf(format, args...))
}

// Debug implements the Logger interface.
func (z *ZerologLogger) Debug(format string, args ...interface{}) {
	z.Log(LogLevelDebug, format, args...)
}

// Info implements the Logger interface.
func (z *ZerologLogger) Info(format string, args ...interface{}) {
	z.Log(LogLevelInfo, format, args...)
}

// Warn implements the Logger interface.
func (z *ZerologLogger) Warn(format string, args ...interface{}) {
	z.Log(LogLevelWarn, format, args...)
}

// Error implements the Logger interface.
func (z *ZerologLogger) Error(format string, args ...interface{}) {
	z.Log(LogLevelError, format, args...)
}
