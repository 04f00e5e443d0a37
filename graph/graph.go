package graph

import "context"

// END is a special constant used to represent the terminal marker in the graph.
// It is a sentinel, not a real node: edges and conditional targets may point to
// it, but no node named END can be registered.
const END = "END"

// NodeFunc is the transition function of a node. It receives the current state
// and returns the updated state, which may declare only a subset of the schema
// fields when the graph uses a schema (a partial update).
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouteFunc resolves a routing label from the current state. The label must be
// a key of the conditional edge's target mapping at the time of the call.
type RouteFunc[S any] func(ctx context.Context, state S) string

// Node represents a node in the graph.
type Node[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the state-transition function associated with the node.
	Function NodeFunc[S]
}

// Edge represents a fixed directed transition between two nodes.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points, or END.
	To string
}

// ConditionalEdge represents a transition resolved at runtime: Route produces
// a label and Targets maps that label to the successor node (or END).
type ConditionalEdge[S any] struct {
	From    string
	Route   RouteFunc[S]
	Targets map[string]string
}

// Runnable is an alias for StateRunnable[map[string]any] for convenience.
type Runnable = StateRunnable[map[string]any]

// StateGraphMap is an alias for StateGraph[map[string]any] for convenience.
// Use NewStateGraph[S]() for other state types.
type StateGraphMap = StateGraph[map[string]any]
