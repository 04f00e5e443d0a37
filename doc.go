// StateGraph - Graph-Based Stateful Workflow Execution for Go
//
// stategraph is an execution engine for stateful workflows expressed as
// directed graphs: nodes transform a shared state, edges decide what runs
// next, and per-thread checkpoints let long-lived workflows resume exactly
// where they left off.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/stategraph
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/stategraph/graph"
//	)
//
//	func main() {
//		g := graph.NewStateGraph[map[string]any]()
//
//		g.AddNode("increment", "add one", func(ctx context.Context, state map[string]any) (map[string]any, error) {
//			return map[string]any{"x": state["x"].(int) + 1}, nil
//		})
//		g.AddNode("double", "multiply by two", func(ctx context.Context, state map[string]any) (map[string]any, error) {
//			return map[string]any{"x": state["x"].(int) * 2}, nil
//		})
//
//		g.SetEntryPoint("increment")
//		g.AddEdge("increment", "double")
//		g.AddEdge("double", graph.END)
//
//		runnable, _ := g.Compile()
//		result, _ := runnable.Invoke(context.Background(), map[string]any{"x": 1})
//		fmt.Println(result["x"]) // 4
//	}
//
// # Key Features
//
//   - Compile-time validation: every structural problem in the wiring is
//     reported at Compile, before anything runs
//   - Single-token execution: one node runs at a time, bounded by a step
//     limit so cyclic graphs cannot spin forever
//   - Conditional routing: runtime routing functions resolve labels that map
//     to successor nodes
//   - Schemas and reducers: declared state fields with defaults, type checks
//     and per-field merge functions
//   - Checkpointing: per-thread state persistence with pluggable backends
//     (memory, file, SQLite, Postgres, Redis)
//   - Streaming: per-step event streaming during execution
//   - Visualization: Mermaid and DOT diagram export
//
// # Core Concepts
//
// # Graph Structure
//
// A workflow is a directed graph where:
//   - Nodes are state-transition functions
//   - Fixed edges define unconditional flow; conditional edges route on a
//     label computed from the state
//   - END is a sentinel terminal marker, not a real node
//
// # State Management
//
// State flows through the graph and evolves at each node. With a schema,
// node results are partial updates folded into the current state field by
// field; reducers accumulate fields (message histories, counters) instead
// of overwriting them.
//
// # Threads and Checkpoints
//
// Passing a thread id at invocation time seeds the run from the thread's
// latest checkpoint and commits a new checkpoint after every completed
// step. Distinct threads never share state.
//
// # Package Structure
//
// graph/
// The core graph construction and execution engine: builder, validation,
// the runnable, schemas, streaming, tracing and visualization.
//
// store/
// The CheckpointStore contract and its backends: store/memory, store/file,
// store/sqlite, store/postgres and store/redis.
//
// prebuilt/
// Ready-made constructions on top of the engine, such as the multi-turn
// ChatAgent and tool-backed nodes.
//
// log/
// The logging interface used throughout stategraph, with a standard library
// implementation and a golog adapter.
package stategraph
