package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	assert.Empty(t, buf.String())

	logger.Warn("warn %d", 3)
	logger.Error("error %d", 4)

	out := buf.String()
	assert.Contains(t, out, "[pixelgraph] ")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"off":     LogLevelNone,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := ParseLogLevel(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Equal(t, "UNKNOWN(42)", LogLevel(42).String())
}

func TestDefaultLoggerSwap(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelDebug))
	Info("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}

func TestGologLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	glogger := golog.New()
	glogger.SetOutput(&buf)

	logger := NewGologLogger(glogger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())

	logger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, logger.GetLevel())
	logger.Info("filtered")
	logger.Error("boom: %s", "disk")
	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "boom: disk")

	logger.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, logger.GetLevel())
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	base := NewCustomLogger(&buf, LogLevelDebug)

	server := Named(base, "server")
	server.Info("listening on %s", ":8000")
	assert.Contains(t, buf.String(), "[INFO] server: listening on :8000")

	buf.Reset()
	Named(server, "ws").Warn("client %d gone", 7)
	assert.Contains(t, buf.String(), "[WARN] server.ws: client 7 gone")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = &NoOpLogger{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}

func TestLoggerMethods_TagEachLevel(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(NewCustomLogger(&buf, LogLevelDebug))

	cases := []struct {
		tag string
		fn  func(string, ...any)
	}{
		{"[DEBUG] ", Debug},
		{"[INFO] ", Info},
		{"[WARN] ", Warn},
		{"[ERROR] ", Error},
	}
	for _, tc := range cases {
		buf.Reset()
		tc.fn("msg %d", 1)
		assert.Contains(t, buf.String(), tc.tag+"msg 1")
	}
}
