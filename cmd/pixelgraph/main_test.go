package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/pixelgraph/config"
	"github.com/smallnest/pixelgraph/log"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/server"
	"github.com/smallnest/pixelgraph/store/memory"
	"github.com/smallnest/pixelgraph/store/redis"
	"github.com/smallnest/pixelgraph/store/sqlite"
)

// isolateEnv clears variables that would leak the developer's setup into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "PIXELGRAPH_LLM_API_KEY", "PIXELGRAPH_DEMO", "PIXELGRAPH_STORE"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestRun_VersionAndHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "pixelgraph dev")

	stderr.Reset()
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--store")

	assert.Equal(t, 2, run([]string{"--no-such-flag"}, &stdout, &stderr))
}

func TestRun_InvalidConfigExitsNonZero(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--store", "mongo"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "driver")
	assert.Empty(t, stdout.String())
}

func TestRun_MissingEnvFile(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "missing.env")
}

func TestRun_StoreUnavailable(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--demo", "--store", "redis", "--dsn", "redis://127.0.0.1:1/0", "--log-level", "none"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "cannot open the redis event store")
	assert.Contains(t, stderr.String(), "--demo --store memory")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PIXELGRAPH_PORT", "9000")

	f, fs, err := parseFlags([]string{"--port", "9100", "--host", "127.0.0.1", "--static", "web", "--log-level", "debug"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := loadConfig(f, fs)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Addr())
	assert.Equal(t, "web", cfg.Server.StaticDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		es, err := openStore(ctx, config.StoreConfig{Driver: config.DriverMemory, MaxRuns: 5})
		require.NoError(t, err)
		assert.IsType(t, &memory.MemoryEventStore{}, es)
		assert.NoError(t, es.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		es, err := openStore(ctx, config.StoreConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "events.db")})
		require.NoError(t, err)
		assert.IsType(t, &sqlite.SqliteEventStore{}, es)
		assert.NoError(t, es.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		es, err := openStore(ctx, config.StoreConfig{Driver: config.DriverRedis, DSN: "redis://" + mr.Addr()})
		require.NoError(t, err)
		assert.IsType(t, &redis.RedisEventStore{}, es)
		assert.NoError(t, es.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStore(ctx, config.StoreConfig{Driver: "mongo"})
		assert.ErrorContains(t, err, "mongo")
	})
}

func TestNewModel(t *testing.T) {
	for _, provider := range []string{config.ProviderOpenAI, config.ProviderGoOpenAI} {
		t.Run(provider, func(t *testing.T) {
			model, err := newModel(config.LLMConfig{Provider: provider, APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: "http://localhost:1/v1"})
			require.NoError(t, err)
			assert.NotNil(t, model)
		})
	}

	_, err := newModel(config.LLMConfig{Provider: "ernie", APIKey: "sk-test"})
	assert.ErrorContains(t, err, "ernie")
}

type echoModel struct{}

func (echoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, echoModel{}, prompt, options...)
}

func (echoModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "hello, adventurer"}}}, nil
}

func TestNewChatbotRunner(t *testing.T) {
	runner, err := newChatbotRunner(echoModel{}, config.LLMConfig{Tools: true}, &log.NoOpLogger{})
	require.NoError(t, err)

	topo := runner.Graph().GetGraph().Topology()
	var ids []string
	for _, n := range topo.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Contains(t, ids, "chatbot")
}

func TestNewServer(t *testing.T) {
	ctx := context.Background()
	logger := &log.NoOpLogger{}

	t.Run("missing key selects demo mode", func(t *testing.T) {
		cfg := config.Default()
		var stderr bytes.Buffer

		srv, es, err := newServer(ctx, cfg, logger, &stderr)
		require.NoError(t, err)
		t.Cleanup(func() { srv.Close(); _ = es.Close() })

		assert.Equal(t, server.ModeDemo, srv.Mode())
		assert.Contains(t, stderr.String(), "Running in demo mode")

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("api key selects graph mode", func(t *testing.T) {
		cfg := config.Default()
		cfg.LLM.Provider = config.ProviderGoOpenAI
		cfg.LLM.APIKey = "sk-test"
		cfg.Visual = schemas.NewVisualConfig("Arcade", schemas.ThemeForest, nil)

		srv, es, err := newServer(ctx, cfg, logger, &bytes.Buffer{})
		require.NoError(t, err)
		t.Cleanup(func() { srv.Close(); _ = es.Close() })

		assert.Equal(t, server.ModeGraph, srv.Mode())
		assert.Equal(t, "Arcade", srv.Title())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "chatbot")
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		cfg := config.Default()
		cfg.LLM.Provider = "ernie"
		cfg.LLM.APIKey = "sk-test"

		_, _, err := newServer(ctx, cfg, logger, &bytes.Buffer{})
		assert.ErrorContains(t, err, "cannot initialise the ernie LLM provider")
	})
}
