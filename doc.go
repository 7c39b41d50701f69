// PixelGraph - watch an agent graph play out as a pixel-art game
//
// PixelGraph runs an agent execution graph and streams every step of it to
// a browser over a WebSocket. Each graph node becomes a character: it
// thinks when the node starts, uses tools while the node calls them,
// speaks the node's answer and goes idle when the node completes. A server
// without a graph runs in demo mode and plays a scripted simulation.
//
// # Quick Start
//
// Run the demo server:
//
//	go run ./cmd/pixelgraph --demo
//
// Or serve a chatbot graph:
//
//	export OPENAI_API_KEY=sk-...
//	go run ./cmd/pixelgraph --static ./frontend/dist
//
// Embedding the server:
//
//	package main
//
//	import (
//		"github.com/smallnest/pixelgraph/arcade"
//		"github.com/smallnest/pixelgraph/prebuilt"
//		"github.com/smallnest/pixelgraph/schemas"
//		"github.com/smallnest/pixelgraph/server"
//		"github.com/tmc/langchaingo/llms/openai"
//	)
//
//	func main() {
//		llm, _ := openai.New()
//		app, _ := prebuilt.CreateChatbot(llm)
//
//		config := schemas.NewVisualConfig("My Arcade", schemas.ThemeDungeon,
//			map[string]schemas.AgentConfig{
//				"chatbot": {Sprite: "wizard", Color: "blue", DisplayName: "AI Assistant"},
//			})
//
//		srv := server.NewGameServer(arcade.NewMessagesRunner(app), config,
//			server.WithGraph(app.GetGraph()))
//		_ = srv.Serve("0.0.0.0", 8000)
//	}
//
// # Packages
//
//   - graph: typed state graphs with parallel steps, retries and listeners
//   - arcade: translation of graph execution into game events, demo runner
//   - server: HTTP and WebSocket game server
//   - schemas: wire events, client messages and the visual configuration
//   - store: event history (memory, SQLite, Redis, PostgreSQL)
//   - prebuilt: a tool-using chatbot graph
//   - tool: small tools for the chatbot (calculator, clock, dice, web fetch)
//   - llms/goopenai: llms.Model over go-openai for OpenAI-compatible servers
//   - config: YAML, dotenv and environment configuration
//   - log: leveled logging with a golog backend
//
// # Wire Protocol
//
// The front end connects to /ws/game and receives JSON events:
//
//	{"event_id": "...", "timestamp": "...", "type": "AGENT_SPEAK",
//	 "agent_id": "chatbot", "data": {"content": "Hello!"}}
//
// It sends START_SIMULATION with an input, STOP_SIMULATION or PING.
package pixelgraph // import "github.com/smallnest/pixelgraph"
