// Package config loads PixelGraph settings.
//
// Settings come from three layers applied in order: Default, an optional
// YAML file (Load) and environment variables (ApplyEnv). Command-line
// flags are applied last by the caller. A .env file can seed the
// environment before ApplyEnv runs (LoadDotEnv).
//
// String values in the YAML file may reference the environment with
// ${VAR} or ${VAR:-default}.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smallnest/pixelgraph/schemas"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// LLM providers. ProviderOpenAI uses langchaingo's client, ProviderGoOpenAI
// the go-openai adapter.
const (
	ProviderOpenAI   = "openai"
	ProviderGoOpenAI = "goopenai"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PIXELGRAPH_"

// ErrMissingAPIKey reports an LLM section without a key.
var ErrMissingAPIKey = errors.New("no LLM API key configured")

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig         `json:"server" yaml:"server"`
	Store  StoreConfig          `json:"store" yaml:"store"`
	LLM    LLMConfig            `json:"llm" yaml:"llm"`
	Log    LogConfig            `json:"log" yaml:"log"`
	Visual schemas.VisualConfig `json:"visual" yaml:"visual"`
}

// ServerConfig configures the HTTP and WebSocket listener.
type ServerConfig struct {
	Host           string        `json:"host" yaml:"host" validate:"required"`
	Port           int           `json:"port" yaml:"port" validate:"min=1,max=65535"`
	StaticDir      string        `json:"static_dir" yaml:"static_dir"`
	AllowedOrigins []string      `json:"allowed_origins" yaml:"allowed_origins"`
	DemoDelay      time.Duration `json:"demo_delay" yaml:"demo_delay" validate:"min=0"`
	// Demo forces demo mode even when an LLM is configured.
	Demo bool `json:"demo" yaml:"demo"`
}

// StoreConfig selects the event history backend.
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver" validate:"oneof=memory sqlite redis postgres"`
	// DSN is a file path for sqlite, a redis:// URL or a postgres connection string.
	DSN     string        `json:"dsn" yaml:"dsn" validate:"required_unless=Driver memory"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" validate:"min=0"`
	MaxRuns int           `json:"max_runs" yaml:"max_runs" validate:"min=0"`
}

// LLMConfig configures the chat model behind the chatbot graph.
type LLMConfig struct {
	Provider     string `json:"provider" yaml:"provider" validate:"oneof=openai goopenai"`
	Model        string `json:"model" yaml:"model"`
	BaseURL      string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey       string `json:"api_key" yaml:"api_key"`
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	Tools        bool   `json:"tools" yaml:"tools"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn warning error none off"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8000,
			DemoDelay: 800 * time.Millisecond,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			MaxRuns: 100,
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
			Tools:    true,
		},
		Log: LogConfig{Level: "info"},
		Visual: schemas.NewVisualConfig("LangArcade", schemas.DefaultTheme, map[string]schemas.AgentConfig{
			"chatbot": {Sprite: "wizard", Color: "blue", DisplayName: "Chatbot"},
		}),
	}
}

// Load reads a YAML file on top of Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	// yaml.v3 merges into existing maps, so the file's nodes must not be
	// decoded on top of the default ones.
	defaultNodes := cfg.Visual.Nodes
	cfg.Visual.Nodes = nil
	if err := yaml.Unmarshal([]byte(expandVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Visual.Nodes == nil {
		cfg.Visual.Nodes = defaultNodes
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored
// when optional is true.
func LoadDotEnv(optional bool, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil && optional {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from PIXELGRAPH_* variables that are set and
// not blank. OPENAI_API_KEY and OPENAI_BASE_URL fill the LLM section when
// it leaves them empty.
func (c *Config) ApplyEnv() error {
	var errs []error

	setString(&c.Server.Host, "HOST")
	setString(&c.Server.StaticDir, "STATIC_DIR")
	errs = append(errs,
		setInt(&c.Server.Port, "PORT"),
		setDuration(&c.Server.DemoDelay, "DEMO_DELAY"),
		setBool(&c.Server.Demo, "DEMO"),
	)
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.Store.Driver, "STORE")
	setString(&c.Store.DSN, "STORE_DSN")
	errs = append(errs,
		setDuration(&c.Store.TTL, "STORE_TTL"),
		setInt(&c.Store.MaxRuns, "STORE_MAX_RUNS"),
	)

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Visual.Title, "TITLE")
	if v, ok := lookup("THEME"); ok {
		c.Visual.Theme = schemas.Theme(v)
	}

	return errors.Join(errs...)
}

// Validate checks field constraints, including the visual section.
func (c *Config) Validate() error {
	return schemas.ValidateStruct(c)
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ErrDemoForced is returned by CheckLLM when demo mode was requested.
var ErrDemoForced = errors.New("demo mode requested")

// CheckLLM reports why no LLM can be built from the configuration, or nil.
func (c *Config) CheckLLM() error {
	if c.Server.Demo {
		return ErrDemoForced
	}
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// lookup returns a PIXELGRAPH_ variable. Blank values count as unset.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
