package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter provides methods to export graphs in different formats
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// TopologyNode is a node as seen by the front end.
type TopologyNode struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// TopologyEdge is an edge as seen by the front end. Conditional edges have
// no fixed target and report To as "*".
type TopologyEdge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Conditional bool   `json:"conditional,omitempty"`
}

// Topology is a JSON friendly description of the graph structure.
type Topology struct {
	EntryPoint string         `json:"entry_point"`
	Nodes      []TopologyNode `json:"nodes"`
	Edges      []TopologyEdge `json:"edges"`
}

// Topology returns nodes in registration order and edges with START and END.
func (ge *Exporter[S]) Topology() Topology {
	g := ge.graph
	t := Topology{
		EntryPoint: g.entryPoint,
		Nodes:      make([]TopologyNode, 0, len(g.nodeOrder)),
		Edges:      make([]TopologyEdge, 0, len(g.edges)+len(g.conditionalEdges)+1),
	}
	for _, name := range g.nodeOrder {
		t.Nodes = append(t.Nodes, TopologyNode{ID: name, Description: g.nodes[name].Description})
	}
	if g.entryPoint != "" {
		t.Edges = append(t.Edges, TopologyEdge{From: START, To: g.entryPoint})
	}
	for _, e := range g.edges {
		t.Edges = append(t.Edges, TopologyEdge{From: e.From, To: e.To})
	}
	for _, from := range ge.conditionalSources() {
		t.Edges = append(t.Edges, TopologyEdge{From: from, To: "*", Conditional: true})
	}
	return t
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter[S]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options
func (ge *Exporter[S]) DrawMermaidWithOptions(opts MermaidOptions) string {
	g := ge.graph
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)
	sb.WriteString("    START([\"START\"])\n")

	for _, name := range g.nodeOrder {
		if name == g.entryPoint {
			fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", name, name)
		} else {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
		}
	}

	usesEnd := false
	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", g.entryPoint)
	}
	for _, e := range g.edges {
		if e.To == END {
			usesEnd = true
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", e.From, e.To)
	}
	for _, from := range ge.conditionalSources() {
		fmt.Fprintf(&sb, "    %s -.-> %s_cond{\"?\"}\n", from, from)
	}
	if usesEnd {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}
	sb.WriteString("    style START fill:#90EE90\n")

	return sb.String()
}

func (ge *Exporter[S]) conditionalSources() []string {
	sources := make([]string, 0, len(ge.graph.conditionalEdges))
	for from := range ge.graph.conditionalEdges {
		sources = append(sources, from)
	}
	sort.Strings(sources)
	return sources
}
