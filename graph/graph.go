package graph

import (
	"context"
	"errors"
	"time"
)

const (
	// START is the virtual node every graph begins from.
	START = "START"
	// END is a special constant used to represent the end node in the graph.
	END = "END"
)

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrRecursionLimit is returned when a run takes more steps than Config.RecursionLimit.
	ErrRecursionLimit = errors.New("recursion limit reached")

	// ErrReservedNodeName is returned when a node is registered as START or END.
	ErrReservedNodeName = errors.New("node name is reserved")
)

// DefaultRecursionLimit bounds the number of supersteps of a single run.
const DefaultRecursionLimit = 25

// TypedNode represents a typed node in the graph.
type TypedNode[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is executed when the node runs. It returns the state update
	// that is merged into the graph state through the schema.
	Function func(ctx context.Context, state S) (S, error)
}

// Edge represents an edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// RetryPolicy defines how to handle node failures
type RetryPolicy struct {
	MaxRetries      int
	BackoffStrategy BackoffStrategy
	// BaseDelay is the unit delay of the backoff strategy. Zero means one second.
	BaseDelay time.Duration
	// RetryableErrors lists substrings of retryable error messages.
	// An empty list retries every error.
	RetryableErrors []string
}

// BackoffStrategy defines different backoff strategies
type BackoffStrategy int

const (
	FixedBackoff BackoffStrategy = iota
	ExponentialBackoff
	LinearBackoff
)

// Config carries per-invocation options.
type Config struct {
	// Listeners receive node events for this invocation only, after the
	// listeners registered on the graph.
	Listeners []NodeListener

	// Tags and Metadata are opaque to the engine and available to nodes
	// through GetConfig.
	Tags     []string
	Metadata map[string]any

	// RecursionLimit caps the number of supersteps. Zero means DefaultRecursionLimit.
	RecursionLimit int
}

type configKey struct{}

// WithConfig adds the config to the context.
func WithConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// GetConfig retrieves the config from the context, or nil.
func GetConfig(ctx context.Context) *Config {
	if config, ok := ctx.Value(configKey{}).(*Config); ok {
		return config
	}
	return nil
}
