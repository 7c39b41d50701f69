package log

import (
	"github.com/kataras/golog"
)

// GologLogger adapts a *golog.Logger. Level filtering is delegated to golog
// so both sides always agree.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

var gologLevels = map[LogLevel]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
	LogLevelNone:  "disable",
}

// NewGologLogger wraps logger and sets it to info level.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	l := &GologLogger{logger: logger}
	l.SetLevel(LogLevelInfo)
	return l
}

// NewGologLoggerWithLevel returns a fresh golog logger with the
// "[pixelgraph] " prefix. This is what the command line binary uses.
func NewGologLoggerWithLevel(level LogLevel) *GologLogger {
	glogger := golog.New()
	glogger.SetPrefix("[pixelgraph] ")
	l := NewGologLogger(glogger)
	l.SetLevel(level)
	return l
}

// Debug logs debug messages through golog
func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }

// Info logs informational messages through golog
func (l *GologLogger) Info(format string, v ...any) { l.logger.Infof(format, v...) }

// Warn logs warning messages through golog
func (l *GologLogger) Warn(format string, v ...any) { l.logger.Warnf(format, v...) }

// Error logs error messages through golog
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }

// SetLevel changes the level of the wrapped golog logger. Unknown levels map to info.
func (l *GologLogger) SetLevel(level LogLevel) {
	name, ok := gologLevels[level]
	if !ok {
		level, name = LogLevelInfo, "info"
	}
	l.level = level
	l.logger.SetLevel(name)
}

// GetLevel returns the current log level
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}
