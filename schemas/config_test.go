package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisualConfig_PreservesNodes(t *testing.T) {
	nodes := map[string]AgentConfig{
		"chatbot": {Sprite: "wizard", Color: "blue", DisplayName: "AI Assistant"},
		"critic":  {Sprite: "knight", Color: "", DisplayName: ""},
	}
	cfg := NewVisualConfig("LangGraph Chat", ThemeDungeon, nodes)

	assert.Equal(t, nodes, cfg.Nodes)

	// the config owns its own map
	nodes["intruder"] = AgentConfig{}
	assert.NotContains(t, cfg.Nodes, "intruder")
}

func TestVisualConfig_Agent(t *testing.T) {
	cfg := NewVisualConfig("Demo", "", map[string]AgentConfig{
		"critic": {Sprite: "knight"},
	})

	assert.Equal(t, AgentConfig{Sprite: "knight", Color: DefaultColor, DisplayName: "critic"}, cfg.Agent("critic"))
	assert.Equal(t, AgentConfig{Sprite: DefaultSprite, Color: DefaultColor, DisplayName: "ghost"}, cfg.Agent("ghost"))

	// lookups never rewrite the stored values
	assert.Equal(t, AgentConfig{Sprite: "knight"}, cfg.Nodes["critic"])
	assert.NotContains(t, cfg.Nodes, "ghost")
	assert.Equal(t, ThemeDungeon, cfg.EffectiveTheme())
}

func TestVisualConfig_Clone(t *testing.T) {
	cfg := NewVisualConfig("Demo", ThemeSpace, map[string]AgentConfig{"a": {Sprite: "robot"}})
	clone := cfg.Clone()
	clone.Nodes["b"] = AgentConfig{}
	assert.Len(t, cfg.Nodes, 1)
	assert.Equal(t, cfg.Title, clone.Title)
}

func TestVisualConfig_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := NewVisualConfig("Demo", ThemeForest, map[string]AgentConfig{"wizard": {Sprite: "wizard"}})
		assert.NoError(t, cfg.Validate())
	})

	t.Run("UnknownTheme", func(t *testing.T) {
		cfg := NewVisualConfig("Demo", Theme("disco"), nil)
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "theme")
		assert.Contains(t, err.Error(), "must be one of")
	})

	t.Run("EmptyNodeID", func(t *testing.T) {
		cfg := NewVisualConfig("Demo", ThemeDungeon, map[string]AgentConfig{"": {}})
		var verrs ValidationErrors
		require.ErrorAs(t, cfg.Validate(), &verrs)
		assert.Len(t, verrs, 1)
	})
}

func TestVisualConfig_JSON(t *testing.T) {
	cfg := NewVisualConfig("Demo", ThemeDungeon, map[string]AgentConfig{
		"wizard": {Sprite: "wizard", Color: "purple", DisplayName: "Wise Wizard"},
	})
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Demo","theme":"dungeon","nodes":{"wizard":{"sprite":"wizard","color":"purple","display_name":"Wise Wizard"}}}`, string(raw))
}

func TestLoadVisualConfig(t *testing.T) {
	cfg, err := LoadVisualConfig(filepath.Join("testdata", "visual.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "LangGraph Chat", cfg.Title)
	assert.Equal(t, ThemeDungeon, cfg.Theme)
	assert.Equal(t, AgentConfig{Sprite: "wizard", Color: "blue", DisplayName: "AI Assistant"}, cfg.Nodes["chatbot"])
	assert.Equal(t, AgentConfig{Sprite: "knight"}, cfg.Nodes["researcher"])
}

func TestLoadVisualConfig_Errors(t *testing.T) {
	_, err := LoadVisualConfig(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("theme: disco\n"), 0o644))
	_, err = LoadVisualConfig(bad)
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("nodes: [unterminated"), 0o644))
	_, err = LoadVisualConfig(broken)
	assert.Error(t, err)
}
