package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders a graph's topology in diagram formats. Conditional edges
// are drawn as dashed arrows labeled with their routing label.
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph.
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid diagram representation of the graph.
func (ge *Exporter[S]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
func (ge *Exporter[S]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	if ge.graph.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString("    style START fill:#90EE90\n")
		sb.WriteString(fmt.Sprintf("    START --> %s\n", ge.graph.entryPoint))
	}

	for _, name := range ge.nodeNames() {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", name, name))
	}

	if ge.referencesEnd() {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}

	for _, edge := range ge.graph.edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", edge.From, edge.To))
	}
	for _, from := range ge.conditionalFroms() {
		ce := ge.graph.conditionalEdges[from]
		for _, label := range sortedLabels(ce.Targets) {
			sb.WriteString(fmt.Sprintf("    %s -.->|%s| %s\n", from, label, ce.Targets[label]))
		}
	}

	return sb.String()
}

// DrawDOT generates a Graphviz DOT representation of the graph.
func (ge *Exporter[S]) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph stategraph {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box];\n")

	if ge.graph.entryPoint != "" {
		sb.WriteString("    START [shape=oval, style=filled, fillcolor=palegreen];\n")
		sb.WriteString(fmt.Sprintf("    START -> %q;\n", ge.graph.entryPoint))
	}
	if ge.referencesEnd() {
		sb.WriteString("    END [shape=oval, style=filled, fillcolor=lightpink];\n")
	}

	for _, name := range ge.nodeNames() {
		node := ge.graph.nodes[name]
		if node.Description != "" {
			sb.WriteString(fmt.Sprintf("    %q [label=%q];\n", name, name+"\n"+node.Description))
		} else {
			sb.WriteString(fmt.Sprintf("    %q;\n", name))
		}
	}

	for _, edge := range ge.graph.edges {
		sb.WriteString(fmt.Sprintf("    %q -> %q;\n", edge.From, edge.To))
	}
	for _, from := range ge.conditionalFroms() {
		ce := ge.graph.conditionalEdges[from]
		for _, label := range sortedLabels(ce.Targets) {
			sb.WriteString(fmt.Sprintf("    %q -> %q [style=dashed, label=%q];\n", from, ce.Targets[label], label))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (ge *Exporter[S]) nodeNames() []string {
	names := make([]string, 0, len(ge.graph.nodes))
	for name := range ge.graph.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ge *Exporter[S]) conditionalFroms() []string {
	froms := make([]string, 0, len(ge.graph.conditionalEdges))
	for from := range ge.graph.conditionalEdges {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	return froms
}

func (ge *Exporter[S]) referencesEnd() bool {
	for _, edge := range ge.graph.edges {
		if edge.To == END {
			return true
		}
	}
	for _, ce := range ge.graph.conditionalEdges {
		for _, target := range ce.Targets {
			if target == END {
				return true
			}
		}
	}
	return false
}

func sortedLabels(targets map[string]string) []string {
	labels := make([]string, 0, len(targets))
	for label := range targets {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
