package graph

import (
	"fmt"
	"sort"

	"github.com/smallnest/stategraph/store"
)

// DefaultStepLimit bounds the number of node executions within a single
// invocation when no other limit is configured.
const DefaultStepLimit = 100

// StateGraph represents a state-based graph. The type parameter S is the
// state type threaded through node calls, typically map[string]any together
// with a MapSchema, or a plain struct.
//
// A StateGraph is mutable only through its builder methods and only before
// Compile; the compiled runnable holds a frozen view of the wiring.
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// edges is a slice of Edge objects representing fixed transitions
	edges []Edge

	// conditionalEdges maps a "From" node to its runtime routing rule
	conditionalEdges map[string]ConditionalEdge[S]

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// schema defines the state structure and update logic
	schema StateSchema[S]

	// checkpointStore, when set, persists per-thread state snapshots
	checkpointStore store.CheckpointStore

	// stepLimit bounds node executions per invocation
	stepLimit int
}

// NewStateGraph creates a new, empty StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]ConditionalEdge[S]),
		stepLimit:        DefaultStepLimit,
	}
}

// AddNode adds a new node to the state graph with the given name, description
// and transition function. Registering the same name twice, or trying to
// register a node named END, is an error.
func (g *StateGraph[S]) AddNode(name string, description string, fn NodeFunc[S]) error {
	if name == END {
		return fmt.Errorf("%w: %s is reserved", ErrDuplicateNode, END)
	}
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
	return nil
}

// AddEdge adds a fixed edge between the "from" and "to" nodes. Forward
// references are allowed; dangling endpoints are reported at Compile.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdges adds a conditional transition rule: at runtime the route
// function resolves a label from the state, and targets maps that label to the
// successor node name (or END). A label produced at runtime that is absent
// from targets fails the run with a RoutingError.
func (g *StateGraph[S]) AddConditionalEdges(from string, route RouteFunc[S], targets map[string]string) {
	g.conditionalEdges[from] = ConditionalEdge[S]{
		From:    from,
		Route:   route,
		Targets: targets,
	}
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph[S]) SetSchema(schema StateSchema[S]) {
	g.schema = schema
}

// SetCheckpointStore attaches a checkpoint backend. When a thread id is
// supplied at invocation time, the runnable seeds state from the thread's
// latest checkpoint and commits a new checkpoint after every completed step.
func (g *StateGraph[S]) SetCheckpointStore(cs store.CheckpointStore) {
	g.checkpointStore = cs
}

// SetStepLimit overrides the default bound on node executions per invocation.
// Values < 1 are ignored.
func (g *StateGraph[S]) SetStepLimit(limit int) {
	if limit >= 1 {
		g.stepLimit = limit
	}
}

// Compile validates the accumulated graph and returns an executable
// StateRunnable. Validation collects every structural issue into a single
// GraphValidationError; a graph never partially compiles.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if issues := g.validate(); len(issues) > 0 {
		return nil, &GraphValidationError{Issues: issues}
	}

	// Freeze a transition table: exactly one rule per node.
	transitions := make(map[string]transition[S], len(g.nodes))
	for _, e := range g.edges {
		transitions[e.From] = transition[S]{to: e.To}
	}
	for from, ce := range g.conditionalEdges {
		transitions[from] = transition[S]{conditional: &ce}
	}

	return &StateRunnable[S]{
		graph:       g,
		transitions: transitions,
		stepLimit:   g.stepLimit,
	}, nil
}

// transition is the frozen routing rule of a node: either a fixed successor
// or a conditional rule, never both.
type transition[S any] struct {
	to          string
	conditional *ConditionalEdge[S]
}

// validate checks the graph for structural soundness. Cycles are deliberately
// not rejected here; looping graphs are legal and bounded at runtime by the
// step limit.
func (g *StateGraph[S]) validate() []error {
	var issues []error

	if g.entryPoint == "" {
		issues = append(issues, ErrEntryPointNotSet)
	} else if _, ok := g.nodes[g.entryPoint]; !ok {
		issues = append(issues, fmt.Errorf("%w: entry point %s", ErrUnknownNode, g.entryPoint))
	}

	// Every edge endpoint (other than END) must name a registered node, and a
	// node may carry at most one transition rule.
	ruleCount := make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			issues = append(issues, fmt.Errorf("%w: edge from %s", ErrUnknownNode, e.From))
			continue
		}
		if e.To != END {
			if _, ok := g.nodes[e.To]; !ok {
				issues = append(issues, fmt.Errorf("%w: edge %s -> %s", ErrUnknownNode, e.From, e.To))
			}
		}
		ruleCount[e.From]++
	}
	for from, ce := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			issues = append(issues, fmt.Errorf("%w: conditional edge from %s", ErrUnknownNode, from))
			continue
		}
		for label, target := range ce.Targets {
			if target == END {
				continue
			}
			if _, ok := g.nodes[target]; !ok {
				issues = append(issues, fmt.Errorf("%w: conditional edge %s[%s] -> %s", ErrUnknownNode, from, label, target))
			}
		}
		ruleCount[from]++
	}

	// Deterministic reporting order for the per-node checks.
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch ruleCount[name] {
		case 0:
			issues = append(issues, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name))
		case 1:
			// One rule, as required.
		default:
			issues = append(issues, fmt.Errorf("%w: %s", ErrConflictingEdges, name))
		}
	}

	// Reachability from the entry point; unreachable nodes are an error, not
	// silently ignored, because they almost always indicate a wiring typo.
	if g.entryPoint != "" {
		reachable := g.reachableNodes()
		for _, name := range names {
			if !reachable[name] {
				issues = append(issues, fmt.Errorf("%w: %s", ErrUnreachableNode, name))
			}
		}
	}

	return issues
}

// reachableNodes walks the wiring from the entry point, following both fixed
// edges and every conditional target.
func (g *StateGraph[S]) reachableNodes() map[string]bool {
	reachable := make(map[string]bool, len(g.nodes))
	stack := []string{g.entryPoint}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == END || reachable[current] {
			continue
		}
		if _, ok := g.nodes[current]; !ok {
			continue
		}
		reachable[current] = true

		for _, e := range g.edges {
			if e.From == current {
				stack = append(stack, e.To)
			}
		}
		if ce, ok := g.conditionalEdges[current]; ok {
			for _, target := range ce.Targets {
				stack = append(stack, target)
			}
		}
	}

	return reachable
}
