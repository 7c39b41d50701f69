package schemas

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme selects the front end's tile set and palette.
type Theme string

const (
	ThemeDungeon Theme = "dungeon"
	ThemeForest  Theme = "forest"
	ThemeCastle  Theme = "castle"
	ThemeSpace   Theme = "space"
)

// DefaultTheme is used when a config leaves the theme empty.
const DefaultTheme = ThemeDungeon

const (
	DefaultSprite = "wizard"
	DefaultColor  = "white"
)

// AgentConfig describes how a single graph node is drawn.
type AgentConfig struct {
	Sprite      string `json:"sprite" yaml:"sprite" validate:"omitempty,max=64"`
	Color       string `json:"color" yaml:"color" validate:"omitempty,max=32"`
	DisplayName string `json:"display_name" yaml:"display_name" validate:"omitempty,max=64"`
}

// VisualConfig is the visual description of a graph: a title, a theme and
// one AgentConfig per node ID.
type VisualConfig struct {
	Title string                 `json:"title" yaml:"title" validate:"max=128"`
	Theme Theme                  `json:"theme" yaml:"theme" validate:"omitempty,oneof=dungeon forest castle space"`
	Nodes map[string]AgentConfig `json:"nodes" yaml:"nodes" validate:"dive,keys,required,max=64,endkeys"`
}

// NewVisualConfig creates a config. The nodes map is copied; keys and
// values are kept exactly as given.
func NewVisualConfig(title string, theme Theme, nodes map[string]AgentConfig) VisualConfig {
	cfg := VisualConfig{Title: title, Theme: theme, Nodes: map[string]AgentConfig{}}
	maps.Copy(cfg.Nodes, nodes)
	return cfg
}

// Clone returns a deep copy.
func (c VisualConfig) Clone() VisualConfig {
	return NewVisualConfig(c.Title, c.Theme, c.Nodes)
}

// EffectiveTheme returns the theme, falling back to DefaultTheme.
func (c VisualConfig) EffectiveTheme() Theme {
	if c.Theme == "" {
		return DefaultTheme
	}
	return c.Theme
}

// Agent returns the visual settings of a node with defaults filled in.
// Nodes without an entry get the default sprite and their ID as display name.
func (c VisualConfig) Agent(nodeID string) AgentConfig {
	agent := c.Nodes[nodeID]
	if agent.Sprite == "" {
		agent.Sprite = DefaultSprite
	}
	if agent.Color == "" {
		agent.Color = DefaultColor
	}
	if agent.DisplayName == "" {
		agent.DisplayName = nodeID
	}
	return agent
}

// Validate checks field constraints.
func (c VisualConfig) Validate() error {
	return ValidateStruct(c)
}

// LoadVisualConfig reads a YAML (or JSON) visual config file.
func LoadVisualConfig(path string) (VisualConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VisualConfig{}, fmt.Errorf("failed to read visual config: %w", err)
	}

	var cfg VisualConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return VisualConfig{}, fmt.Errorf("failed to parse visual config %s: %w", path, err)
	}
	if cfg.Nodes == nil {
		cfg.Nodes = map[string]AgentConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return VisualConfig{}, err
	}
	return cfg, nil
}
