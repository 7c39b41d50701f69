package arcade

import (
	"context"
	"slices"
	"sync"

	"github.com/smallnest/pixelgraph/schemas"
)

// Sink receives the events of a simulation, typically a WebSocket client.
type Sink interface {
	Publish(ctx context.Context, event schemas.GameEvent) error
}

// SinkFunc is a function adapter for Sink
type SinkFunc func(ctx context.Context, event schemas.GameEvent) error

// Publish implements the Sink interface
func (f SinkFunc) Publish(ctx context.Context, event schemas.GameEvent) error {
	return f(ctx, event)
}

// Simulation end statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ResultPreviewLength is the maximum number of runes of a tool result sent
// to the client.
const ResultPreviewLength = 200

// Emitter builds the game events of one run and publishes them to a sink.
// It is safe for concurrent use by parallel graph nodes.
type Emitter struct {
	sink  Sink
	runID string

	mu      sync.Mutex
	events  []schemas.GameEvent
	errored bool
}

// NewEmitter creates an emitter for runID. A nil sink only records events.
func NewEmitter(sink Sink, runID string) *Emitter {
	return &Emitter{sink: sink, runID: runID}
}

// RunID returns the run the emitter belongs to.
func (e *Emitter) RunID() string {
	return e.runID
}

// Events returns a copy of the events published so far.
func (e *Emitter) Events() []schemas.GameEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.events)
}

// Errored reports whether an ERROR event has been published.
func (e *Emitter) Errored() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errored
}

// Emit publishes an event and records it once the sink accepted it.
func (e *Emitter) Emit(ctx context.Context, event schemas.GameEvent) error {
	if e.sink != nil {
		if err := e.sink.Publish(ctx, event); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.events = append(e.events, event)
	if event.Type == schemas.EventError {
		e.errored = true
	}
	e.mu.Unlock()
	return nil
}

func (e *Emitter) emit(ctx context.Context, eventType schemas.EventType, agentID string, data map[string]any) error {
	return e.Emit(ctx, schemas.NewGameEvent(eventType, agentID, data))
}

// ThinkStart shows the agent thinking.
func (e *Emitter) ThinkStart(ctx context.Context, agentID string) error {
	return e.emit(ctx, schemas.EventAgentThinkStart, agentID, nil)
}

// Speak shows a speech bubble. Markdown in text is rendered and sanitised;
// content carries the plain text and content_html the safe HTML.
func (e *Emitter) Speak(ctx context.Context, agentID, text string) error {
	speech := RenderSpeech(text)
	return e.emit(ctx, schemas.EventAgentSpeak, agentID, map[string]any{
		schemas.DataContent:     speech.Text,
		schemas.DataContentHTML: speech.HTML,
	})
}

// Idle returns the agent to its resting animation.
func (e *Emitter) Idle(ctx context.Context, agentID string) error {
	return e.emit(ctx, schemas.EventAgentIdle, agentID, nil)
}

// ToolStart shows the agent using a tool.
func (e *Emitter) ToolStart(ctx context.Context, agentID, toolName, input string) error {
	return e.emit(ctx, schemas.EventToolStart, agentID, map[string]any{
		schemas.DataToolName: toolName,
		schemas.DataInput:    input,
	})
}

// ToolEnd reports a tool result, truncated to ResultPreviewLength runes.
func (e *Emitter) ToolEnd(ctx context.Context, agentID, toolName, result string) error {
	return e.emit(ctx, schemas.EventToolEnd, agentID, map[string]any{
		schemas.DataToolName:      toolName,
		schemas.DataResultPreview: Preview(result, ResultPreviewLength),
	})
}

// Error reports a failure attributed to agentID.
func (e *Emitter) Error(ctx context.Context, agentID string, err error) error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return e.emit(ctx, schemas.EventError, agentID, map[string]any{
		schemas.DataError: msg,
	})
}

// SimulationStart announces a new run.
func (e *Emitter) SimulationStart(ctx context.Context, input string) error {
	return e.emit(ctx, schemas.EventSimulationStart, schemas.SystemAgentID, map[string]any{
		schemas.DataRunID: e.runID,
		schemas.DataInput: input,
	})
}

// SimulationEnd closes the run with one of the Status constants.
func (e *Emitter) SimulationEnd(ctx context.Context, status string) error {
	return e.emit(ctx, schemas.EventSimulationEnd, schemas.SystemAgentID, map[string]any{
		schemas.DataRunID:  e.runID,
		schemas.DataStatus: status,
	})
}
