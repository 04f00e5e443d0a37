// Package graph provides the core construction and execution engine for
// stategraph: stateful workflows declared as directed graphs of named nodes.
//
// A workflow is assembled with StateGraph: register nodes (state-transition
// functions), wire them with fixed edges or conditional edges (a routing
// function plus a label-to-target mapping), and set an entry point. Compile
// validates the wiring (dangling targets, unreachable nodes, conflicting
// transition rules) and returns an immutable StateRunnable.
//
// Execution is a single-token walk: starting at the entry point, one node
// runs at a time and its result is folded into the state (shallow merge via
// the optional StateSchema), until the END sentinel is reached or the step
// limit trips. Cycles are legal and bounded only by the step limit.
//
// # Basic usage
//
//	g := graph.NewStateGraph[map[string]any]()
//
//	g.AddNode("increment", "bump the counter", func(ctx context.Context, state map[string]any) (map[string]any, error) {
//		return map[string]any{"x": state["x"].(int) + 1}, nil
//	})
//	g.AddNode("double", "double the counter", func(ctx context.Context, state map[string]any) (map[string]any, error) {
//		return map[string]any{"x": state["x"].(int) * 2}, nil
//	})
//
//	g.SetEntryPoint("increment")
//	g.AddEdge("increment", "double")
//	g.AddEdge("double", graph.END)
//
//	runnable, err := g.Compile()
//	if err != nil {
//		// *GraphValidationError lists every structural issue
//	}
//	final, err := runnable.Invoke(ctx, map[string]any{"x": 1})
//
// # Conditional routing
//
//	g.AddConditionalEdges("classify", func(ctx context.Context, state map[string]any) string {
//		if len(state["message"].(string)) > 10 {
//			return "big"
//		}
//		return "small"
//	}, map[string]string{
//		"big":   "detailed_path",
//		"small": "quick_path",
//	})
//
// # Multi-turn state with checkpointing
//
// Attach a store.CheckpointStore and invoke with a thread id: each run is
// seeded from the thread's latest checkpoint, the caller's input is merged on
// top, and every completed step is committed. Threads are isolated from one
// another by construction.
//
//	g.SetCheckpointStore(memory.NewCheckpointStore())
//	runnable, _ := g.Compile()
//	runnable.InvokeWithConfig(ctx, input, graph.WithThreadID("session-42"))
package graph
