// Package schemas defines the wire protocol between the game server and the
// browser, plus the visual configuration of a graph.
//
// The server sends GameEvent values as JSON text frames:
//
//	{"event_id":"…","timestamp":"2026-01-02T15:04:05Z","type":"AGENT_SPEAK",
//	 "agent_id":"chatbot","data":{"content":"Hello!"}}
//
// and the browser sends ClientMessage values:
//
//	{"type":"START_SIMULATION","input":"tell me a story"}
package schemas
