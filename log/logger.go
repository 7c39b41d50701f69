package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel is a logging severity. Messages below a logger's level are dropped.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelNone drops everything.
	LogLevelNone
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "NONE"}

// String returns the upper case level name, e.g. "WARN".
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
	return levelNames[l]
}

// ParseLogLevel converts a level name such as "debug" or "WARN" into a LogLevel.
// The empty string means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "off", "disable":
		return LogLevelNone, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger is the logging interface used by the server, runners and stores.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// DefaultLogger writes through the standard library logger with a
// "[pixelgraph] " prefix and a "[LEVEL] " tag on every line.
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

// NewDefaultLogger returns a logger writing to stderr.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewCustomLogger(os.Stderr, level)
}

// NewCustomLogger returns a logger writing to out.
func NewCustomLogger(out io.Writer, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(out, "[pixelgraph] ", log.LstdFlags),
		level:  level,
	}
}

func (l *DefaultLogger) logf(level LogLevel, format string, v []any) {
	if level < l.level {
		return
	}
	l.logger.Printf("["+level.String()+"] "+format, v...)
}

// Debug logs debug messages
func (l *DefaultLogger) Debug(format string, v ...any) { l.logf(LogLevelDebug, format, v) }

// Info logs informational messages
func (l *DefaultLogger) Info(format string, v ...any) { l.logf(LogLevelInfo, format, v) }

// Warn logs warning messages
func (l *DefaultLogger) Warn(format string, v ...any) { l.logf(LogLevelWarn, format, v) }

// Error logs error messages
func (l *DefaultLogger) Error(format string, v ...any) { l.logf(LogLevelError, format, v) }

// NoOpLogger discards everything.
type NoOpLogger struct{}

// Debug does nothing
func (*NoOpLogger) Debug(string, ...any) {}

// Info does nothing
func (*NoOpLogger) Info(string, ...any) {}

// Warn does nothing
func (*NoOpLogger) Warn(string, ...any) {}

// Error does nothing
func (*NoOpLogger) Error(string, ...any) {}

// Named returns a logger that prefixes every message with "name: ".
// Nested names are joined with dots.
func Named(l Logger, name string) Logger {
	if n, ok := l.(*namedLogger); ok {
		return &namedLogger{next: n.next, prefix: strings.TrimSuffix(n.prefix, ": ") + "." + name + ": "}
	}
	return &namedLogger{next: l, prefix: name + ": "}
}

type namedLogger struct {
	next   Logger
	prefix string
}

func (n *namedLogger) Debug(format string, v ...any) { n.next.Debug(n.prefix+format, v...) }
func (n *namedLogger) Info(format string, v ...any)  { n.next.Info(n.prefix+format, v...) }
func (n *namedLogger) Warn(format string, v ...any)  { n.next.Warn(n.prefix+format, v...) }
func (n *namedLogger) Error(format string, v ...any) { n.next.Error(n.prefix+format, v...) }

type loggerHolder struct{ Logger }

var defaultLogger atomic.Pointer[loggerHolder]

func init() {
	defaultLogger.Store(&loggerHolder{NewDefaultLogger(LogLevelInfo)})
}

// SetDefaultLogger replaces the package-level logger. Safe for concurrent use.
func SetDefaultLogger(logger Logger) {
	defaultLogger.Store(&loggerHolder{logger})
}

// GetDefaultLogger returns the package-level logger.
func GetDefaultLogger() Logger {
	return defaultLogger.Load().Logger
}

// SetLogLevel installs a DefaultLogger at level as the package-level logger.
func SetLogLevel(level LogLevel) {
	SetDefaultLogger(NewDefaultLogger(level))
}

// Debug logs a debug message using the package-level logger
func Debug(format string, v ...any) { GetDefaultLogger().Debug(format, v...) }

// Info logs an informational message using the package-level logger
func Info(format string, v ...any) { GetDefaultLogger().Info(format, v...) }

// Warn logs a warning message using the package-level logger
func Warn(format string, v ...any) { GetDefaultLogger().Warn(format, v...) }

// Error logs an error message using the package-level logger
func Error(format string, v ...any) { GetDefaultLogger().Error(format, v...) }
