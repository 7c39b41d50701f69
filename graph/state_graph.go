package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// StateGraph represents a generic state-based graph.
// The type parameter S is the state type, typically a struct.
//
//	g := graph.NewStateGraph[graph.MessagesState]()
//	g.AddNode("chatbot", "Answers the user", chatbot)
//	g.AddEdge(graph.START, "chatbot")
//	g.AddEdge("chatbot", graph.END)
//	app, err := g.Compile()
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding node
	nodes map[string]TypedNode[S]

	// nodeOrder keeps registration order for deterministic exports
	nodeOrder []string

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to the function choosing its successor
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// retryPolicy defines retry behavior for failed nodes
	retryPolicy *RetryPolicy

	// schema defines how node outputs are merged into the state
	schema StateSchema[S]

	// listeners are notified for every invocation of the compiled graph
	listeners []NodeListener
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]TypedNode[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
// Registering a name twice replaces the earlier node.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	if _, exists := g.nodes[name]; !exists {
		g.nodeOrder = append(g.nodeOrder, name)
	}
	g.nodes[name] = TypedNode[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge between the "from" and "to" nodes.
// An edge from START sets the entry point.
func (g *StateGraph[S]) AddEdge(from, to string) {
	if from == START {
		g.entryPoint = to
		return
	}
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy for the graph.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph[S]) SetSchema(schema StateSchema[S]) {
	g.schema = schema
}

// AddListener registers a listener notified on every invocation.
func (g *StateGraph[S]) AddListener(listener NodeListener) {
	g.listeners = append(g.listeners, listener)
}

// Nodes returns the node names in registration order.
func (g *StateGraph[S]) Nodes() []string {
	return slices.Clone(g.nodeOrder)
}

// validate checks that the graph is executable.
func (g *StateGraph[S]) validate() error {
	if g.entryPoint == "" {
		return ErrEntryPointNotSet
	}
	for _, name := range g.nodeOrder {
		if name == START || name == END {
			return fmt.Errorf("%w: %s", ErrReservedNodeName, name)
		}
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
	}
	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
	}
	return nil
}

// StateRunnable represents a compiled state graph that can be invoked.
// It is safe for concurrent use once compiled.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
}

// Compile validates the state graph and returns a StateRunnable instance.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &StateRunnable[S]{graph: g}, nil
}

// GetGraph returns an exporter for the compiled graph.
func (r *StateRunnable[S]) GetGraph() *Exporter[S] {
	return NewExporter(r.graph)
}

// Invoke executes the compiled state graph with the given input state.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the compiled state graph with the given input state and config.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	if config == nil {
		config = &Config{}
	}
	ctx = WithConfig(ctx, config)

	listeners := make([]NodeListener, 0, len(r.graph.listeners)+len(config.Listeners))
	listeners = append(listeners, r.graph.listeners...)
	listeners = append(listeners, config.Listeners...)

	limit := config.RecursionLimit
	if limit <= 0 {
		limit = DefaultRecursionLimit
	}

	state := initialState
	notifyListeners(ctx, listeners, EventChainStart, "", state, nil)

	currentNodes := []string{r.graph.entryPoint}
	for step := 0; len(currentNodes) > 0; step++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if step >= limit {
			return state, fmt.Errorf("%w: %d steps", ErrRecursionLimit, limit)
		}

		results, errorsList := r.executeNodesParallel(ctx, currentNodes, state, listeners)
		if err := errors.Join(errorsList...); err != nil {
			return state, err
		}

		var err error
		state, err = r.mergeState(state, results)
		if err != nil {
			return state, err
		}

		currentNodes, err = r.determineNextNodes(ctx, currentNodes, state)
		if err != nil {
			return state, err
		}
	}

	notifyListeners(ctx, listeners, EventChainEnd, "", state, nil)
	return state, nil
}

// executeNodesParallel runs every node of a superstep concurrently.
func (r *StateRunnable[S]) executeNodesParallel(ctx context.Context, nodes []string, state S, listeners []NodeListener) ([]S, []error) {
	var wg sync.WaitGroup
	results := make([]S, len(nodes))
	errorsList := make([]error, len(nodes))

	for i, nodeName := range nodes {
		node, ok := r.graph.nodes[nodeName]
		if !ok {
			errorsList[i] = fmt.Errorf("%w: %s", ErrNodeNotFound, nodeName)
			continue
		}

		SafeGo(&wg, func() {
			nodeCtx := withNode(ctx, node.Name, listeners)
			notifyListeners(nodeCtx, listeners, NodeEventStart, node.Name, state, nil)

			res, err := r.executeNodeWithRetry(nodeCtx, node, state)
			if err != nil {
				notifyListeners(nodeCtx, listeners, NodeEventError, node.Name, state, err)
				errorsList[i] = fmt.Errorf("error in node %s: %w", node.Name, err)
				return
			}

			notifyListeners(nodeCtx, listeners, NodeEventComplete, node.Name, res, nil)
			results[i] = res
		}, func(panicVal any) {
			err := fmt.Errorf("panic in node %s: %v", node.Name, panicVal)
			notifyListeners(ctx, listeners, NodeEventError, node.Name, state, err)
			errorsList[i] = err
		})
	}
	wg.Wait()
	return results, errorsList
}

// mergeState merges node results into the current state.
func (r *StateRunnable[S]) mergeState(current S, results []S) (S, error) {
	if r.graph.schema == nil {
		if len(results) > 0 {
			return results[len(results)-1], nil
		}
		return current, nil
	}

	state := current
	for _, res := range results {
		var err error
		state, err = r.graph.schema.Update(state, res)
		if err != nil {
			return current, fmt.Errorf("schema update failed: %w", err)
		}
	}
	return state, nil
}

// determineNextNodes resolves the successors of the nodes that just ran.
// END is dropped and duplicates keep their first position.
func (r *StateRunnable[S]) determineNextNodes(ctx context.Context, currentNodes []string, state S) ([]string, error) {
	var next []string
	add := func(name string) {
		if name != END && !slices.Contains(next, name) {
			next = append(next, name)
		}
	}

	for _, nodeName := range currentNodes {
		if condition, ok := r.graph.conditionalEdges[nodeName]; ok {
			target := condition(ctx, state)
			if target == "" {
				return nil, fmt.Errorf("conditional edge returned empty next node from %s", nodeName)
			}
			if _, known := r.graph.nodes[target]; !known && target != END {
				return nil, fmt.Errorf("%w: %s (from conditional edge of %s)", ErrNodeNotFound, target, nodeName)
			}
			add(target)
			continue
		}

		found := false
		for _, edge := range r.graph.edges {
			if edge.From == nodeName {
				add(edge.To)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, nodeName)
		}
	}
	return next, nil
}

// SafeGo runs fn in a goroutine tracked by wg and hands any panic value to onPanic.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil && onPanic != nil {
				onPanic(r)
			}
		}()
		fn()
	}()
}
