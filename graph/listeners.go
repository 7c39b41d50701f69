package graph

import (
	"context"
	"time"

	"github.com/smallnest/pixelgraph/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"

	// EventChainStart indicates the graph execution has started
	EventChainStart NodeEvent = "chain_start"

	// EventChainEnd indicates the graph execution has completed
	EventChainEnd NodeEvent = "chain_end"

	// EventToolStart indicates a tool execution has started
	EventToolStart NodeEvent = "tool_start"

	// EventToolEnd indicates a tool execution has completed
	EventToolEnd NodeEvent = "tool_end"
)

// NodeListener defines the interface for node event listeners.
//
// For node events state is the node's output (complete) or input (start,
// error). For tool events state is a ToolCall. For chain events it is the
// graph state.
type NodeListener interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event NodeEvent, nodeName string, state any, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state any, err error) {
	f(ctx, event, nodeName, state, err)
}

// ToolCall describes a tool invocation made from inside a node.
type ToolCall struct {
	ID     string
	Name   string
	Input  string
	Output string
	// Duration is set on tool end events.
	Duration time.Duration
}

type nodeNameKey struct{}
type listenersKey struct{}

func withNode(ctx context.Context, name string, listeners []NodeListener) context.Context {
	ctx = context.WithValue(ctx, nodeNameKey{}, name)
	return context.WithValue(ctx, listenersKey{}, listeners)
}

// NodeName returns the name of the node executing with ctx, or "".
func NodeName(ctx context.Context) string {
	name, _ := ctx.Value(nodeNameKey{}).(string)
	return name
}

// NotifyToolStart reports the start of a tool call to the listeners of the
// running graph. It is a no-op outside a node.
func NotifyToolStart(ctx context.Context, call ToolCall) {
	notifyFromContext(ctx, EventToolStart, call, nil)
}

// NotifyToolEnd reports the end of a tool call. The result is call.Output;
// err is the tool error, if any.
func NotifyToolEnd(ctx context.Context, call ToolCall, err error) {
	notifyFromContext(ctx, EventToolEnd, call, err)
}

func notifyFromContext(ctx context.Context, event NodeEvent, call ToolCall, err error) {
	listeners, _ := ctx.Value(listenersKey{}).([]NodeListener)
	if len(listeners) == 0 {
		return
	}
	notifyListeners(ctx, listeners, event, NodeName(ctx), call, err)
}

// notifyListeners calls every listener in order. A panicking listener is
// logged and skipped.
func notifyListeners(ctx context.Context, listeners []NodeListener, event NodeEvent, nodeName string, state any, err error) {
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("listener panicked on %s event of node %q: %v", event, nodeName, r)
				}
			}()
			l.OnNodeEvent(ctx, event, nodeName, state, err)
		}()
	}
}
