package schemas

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a game event.
type EventType string

const (
	// Agent events
	EventAgentThinkStart EventType = "AGENT_THINK_START"
	EventAgentSpeak      EventType = "AGENT_SPEAK"
	EventAgentIdle       EventType = "AGENT_IDLE"

	// Tool events
	EventToolStart EventType = "TOOL_START"
	EventToolEnd   EventType = "TOOL_END"

	// System events
	EventSystemReady     EventType = "SYSTEM_READY"
	EventSimulationStart EventType = "SIMULATION_START"
	EventSimulationEnd   EventType = "SIMULATION_END"
	EventError           EventType = "ERROR"
)

// SystemAgentID is the agent_id of events not attributed to a graph node.
const SystemAgentID = "system"

// Keys used in GameEvent.Data.
const (
	DataContent       = "content"
	DataContentHTML   = "content_html"
	DataToolName      = "tool_name"
	DataInput         = "input"
	DataResultPreview = "result_preview"
	DataError         = "error"
	DataRunID         = "run_id"
	DataStatus        = "status"
	DataTitle         = "title"
	DataTheme         = "theme"
	DataMode          = "mode"
	DataNodes         = "nodes"
)

// IsSystem reports whether clients apply the event immediately instead of
// queueing it behind running animations.
func (t EventType) IsSystem() bool {
	switch t {
	case EventSystemReady, EventSimulationStart, EventError:
		return true
	}
	return false
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventAgentThinkStart, EventAgentSpeak, EventAgentIdle,
		EventToolStart, EventToolEnd,
		EventSystemReady, EventSimulationStart, EventSimulationEnd, EventError:
		return true
	}
	return false
}

// GameEvent is one step of a simulation as drawn by the front end.
// It should be treated as immutable once published.
type GameEvent struct {
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	AgentID   string         `json:"agent_id"`
	Data      map[string]any `json:"data"`
}

// NewGameEvent creates an event with a fresh UUID and the current UTC time.
func NewGameEvent(eventType EventType, agentID string, data map[string]any) GameEvent {
	if data == nil {
		data = map[string]any{}
	}
	return GameEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		AgentID:   agentID,
		Data:      data,
	}
}

// String returns the data value stored under key, or "" when absent or not a string.
func (e GameEvent) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// MarshalJSON keeps data an object on the wire even for zero events.
func (e GameEvent) MarshalJSON() ([]byte, error) {
	type wire GameEvent
	w := wire(e)
	if w.Data == nil {
		w.Data = map[string]any{}
	}
	return json.Marshal(w)
}
