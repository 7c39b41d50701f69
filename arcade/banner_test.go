package arcade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	out := Banner("PixelGraph Demo", "0.0.0.0:8000", "demo")
	assert.Contains(t, out, "PixelGraph Demo")
	assert.Contains(t, out, "http://0.0.0.0:8000")
	assert.Contains(t, out, "ws://0.0.0.0:8000/ws/game")
	assert.Contains(t, out, "see the demo")

	live := Banner("Chat", "localhost:9000", "graph")
	assert.NotContains(t, live, "see the demo")
	assert.Contains(t, live, "graph")
}
