package arcade

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/pixelgraph/graph"
	"github.com/smallnest/pixelgraph/log"
)

// Runner executes one simulation and reports it through the emitter.
type Runner interface {
	Run(ctx context.Context, input string, em *Emitter) error
}

// RunnerFunc is a function adapter for Runner
type RunnerFunc func(ctx context.Context, input string, em *Emitter) error

// Run implements the Runner interface
func (f RunnerFunc) Run(ctx context.Context, input string, em *Emitter) error {
	return f(ctx, input, em)
}

// GraphRunner drives a compiled state graph and translates its node events
// into game events:
//
//	node start    -> AGENT_THINK_START
//	tool start    -> TOOL_START
//	tool end      -> TOOL_END
//	node complete -> AGENT_SPEAK (when Speech returns text), AGENT_IDLE
//	node error    -> ERROR, AGENT_IDLE
type GraphRunner[S any] struct {
	runnable *graph.StateRunnable[S]

	// Input builds the initial state from the user's input.
	Input func(input string) S

	// Speech extracts what a node says from its output. Nil means silent nodes.
	Speech func(node string, output S) string

	// RecursionLimit is passed to the graph. Zero uses the graph default.
	RecursionLimit int

	logger log.Logger
}

// NewGraphRunner creates a runner for a compiled graph.
func NewGraphRunner[S any](runnable *graph.StateRunnable[S], input func(string) S, speech func(string, S) string) *GraphRunner[S] {
	return &GraphRunner[S]{
		runnable: runnable,
		Input:    input,
		Speech:   speech,
		logger:   log.GetDefaultLogger(),
	}
}

// NewMessagesRunner creates a runner for graphs over graph.MessagesState.
// The input becomes a human message and nodes speak their last AI message.
func NewMessagesRunner(runnable *graph.StateRunnable[graph.MessagesState]) *GraphRunner[graph.MessagesState] {
	return NewGraphRunner(runnable, graph.NewMessagesState, func(_ string, output graph.MessagesState) string {
		return output.LastAIText()
	})
}

// SetLogger replaces the runner's logger.
func (g *GraphRunner[S]) SetLogger(logger log.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Graph returns the underlying runnable.
func (g *GraphRunner[S]) Graph() *graph.StateRunnable[S] {
	return g.runnable
}

// Run invokes the graph. A failure to publish an event aborts the run with
// that error.
func (g *GraphRunner[S]) Run(ctx context.Context, input string, em *Emitter) error {
	if g.Input == nil {
		return errors.New("graph runner has no input function")
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	publish := func(err error) {
		if err != nil {
			g.logger.Warn("run %s: publish failed: %v", em.RunID(), err)
			cancel(fmt.Errorf("publish event: %w", err))
		}
	}

	listener := graph.NodeListenerFunc(func(ctx context.Context, event graph.NodeEvent, node string, state any, err error) {
		switch event {
		case graph.NodeEventStart:
			publish(em.ThinkStart(ctx, node))

		case graph.EventToolStart:
			call, _ := state.(graph.ToolCall)
			publish(em.ToolStart(ctx, node, call.Name, call.Input))

		case graph.EventToolEnd:
			call, _ := state.(graph.ToolCall)
			result := call.Output
			if err != nil {
				result = "error: " + err.Error()
			}
			publish(em.ToolEnd(ctx, node, call.Name, result))

		case graph.NodeEventComplete:
			if output, ok := state.(S); ok && g.Speech != nil {
				if text := g.Speech(node, output); text != "" {
					publish(em.Speak(ctx, node, text))
				}
			}
			publish(em.Idle(ctx, node))

		case graph.NodeEventError:
			if !errors.Is(err, context.Canceled) {
				publish(em.Error(ctx, node, err))
			}
			publish(em.Idle(context.WithoutCancel(ctx), node))
		}
	})

	_, err := g.runnable.InvokeWithConfig(ctx, g.Input(input), &graph.Config{
		Listeners:      []graph.NodeListener{listener},
		Metadata:       map[string]any{"run_id": em.RunID()},
		RecursionLimit: g.RecursionLimit,
	})

	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return err
}
