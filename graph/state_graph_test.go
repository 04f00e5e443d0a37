package graph_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/stategraph/graph"
)

func passthrough(ctx context.Context, state map[string]any) (map[string]any, error) {
	return state, nil
}

func TestStateGraph_AddNode(t *testing.T) {
	t.Parallel()

	t.Run("duplicate name rejected", func(t *testing.T) {
		t.Parallel()

		g := graph.NewStateGraph[map[string]any]()
		err := g.AddNode("worker", "first", passthrough)
		require.NoError(t, err)

		err = g.AddNode("worker", "second", passthrough)
		require.Error(t, err)
		assert.ErrorIs(t, err, graph.ErrDuplicateNode)
	})

	t.Run("END is reserved", func(t *testing.T) {
		t.Parallel()

		g := graph.NewStateGraph[map[string]any]()
		err := g.AddNode(graph.END, "terminal", passthrough)
		require.Error(t, err)
	})
}

func TestStateGraph_Compile_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		buildGraph func() *graph.StateGraph[map[string]any]
		wantErrs   []error
	}{
		{
			name: "entry point not set",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddEdge("a", graph.END)
				return g
			},
			wantErrs: []error{graph.ErrEntryPointNotSet},
		},
		{
			name: "entry point unknown",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddEdge("a", graph.END)
				g.SetEntryPoint("missing")
				return g
			},
			wantErrs: []error{graph.ErrUnknownNode},
		},
		{
			name: "edge to unregistered node",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddEdge("a", "ghost")
				g.SetEntryPoint("a")
				return g
			},
			wantErrs: []error{graph.ErrUnknownNode},
		},
		{
			name: "conditional target unregistered",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddConditionalEdges("a", func(ctx context.Context, state map[string]any) string {
					return "go"
				}, map[string]string{"go": "ghost"})
				g.SetEntryPoint("a")
				return g
			},
			wantErrs: []error{graph.ErrUnknownNode},
		},
		{
			name: "node without outgoing rule",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddNode("b", "", passthrough)
				g.AddEdge("a", "b")
				g.SetEntryPoint("a")
				return g
			},
			wantErrs: []error{graph.ErrNoOutgoingEdge},
		},
		{
			name: "two fixed edges from one node",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddNode("b", "", passthrough)
				g.AddEdge("a", "b")
				g.AddEdge("a", graph.END)
				g.AddEdge("b", graph.END)
				g.SetEntryPoint("a")
				return g
			},
			wantErrs: []error{graph.ErrConflictingEdges},
		},
		{
			name: "fixed edge alongside conditional rule",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddNode("b", "", passthrough)
				g.AddEdge("a", "b")
				g.AddConditionalEdges("a", func(ctx context.Context, state map[string]any) string {
					return "stop"
				}, map[string]string{"stop": graph.END})
				g.AddEdge("b", graph.END)
				g.SetEntryPoint("a")
				return g
			},
			wantErrs: []error{graph.ErrConflictingEdges},
		},
		{
			name: "unreachable node",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddNode("island", "", passthrough)
				g.AddEdge("a", graph.END)
				g.AddEdge("island", graph.END)
				g.SetEntryPoint("a")
				return g
			},
			wantErrs: []error{graph.ErrUnreachableNode},
		},
		{
			name: "multiple issues reported together",
			buildGraph: func() *graph.StateGraph[map[string]any] {
				g := graph.NewStateGraph[map[string]any]()
				g.AddNode("a", "", passthrough)
				g.AddNode("b", "", passthrough)
				g.AddEdge("a", "ghost")
				return g
			},
			wantErrs: []error{graph.ErrEntryPointNotSet, graph.ErrUnknownNode, graph.ErrNoOutgoingEdge},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runnable, err := tt.buildGraph().Compile()
			require.Error(t, err)
			assert.Nil(t, runnable)

			var validationErr *graph.GraphValidationError
			require.ErrorAs(t, err, &validationErr)
			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestStateGraph_Compile_CycleIsLegal(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("loop", "", passthrough)
	g.AddNode("check", "", passthrough)
	g.AddEdge("loop", "check")
	g.AddConditionalEdges("check", func(ctx context.Context, state map[string]any) string {
		return "again"
	}, map[string]string{"again": "loop", "done": graph.END})
	g.SetEntryPoint("loop")

	_, err := g.Compile()
	require.NoError(t, err)
}

func TestStateGraph_Compile_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() *graph.StateGraph[map[string]any] {
		g := graph.NewStateGraph[map[string]any]()
		g.AddNode("inc", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
			return map[string]any{"x": state["x"].(int) + 1}, nil
		})
		g.AddNode("double", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
			return map[string]any{"x": state["x"].(int) * 2}, nil
		})
		g.AddEdge("inc", "double")
		g.AddEdge("double", graph.END)
		g.SetEntryPoint("inc")
		return g
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		runnable, err := build().Compile()
		require.NoError(t, err)

		result, err := runnable.Invoke(ctx, map[string]any{"x": 1})
		require.NoError(t, err)
		assert.Equal(t, 4, result["x"])
	}
}

func TestStateRunnable_Invoke_LinearPipeline(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("inc", "add one", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"x": state["x"].(int) + 1}, nil
	})
	g.AddNode("double", "multiply by two", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"x": state["x"].(int) * 2}, nil
	})
	g.AddEdge("inc", "double")
	g.AddEdge("double", graph.END)
	g.SetEntryPoint("inc")

	runnable, err := g.Compile()
	require.NoError(t, err)

	result, err := runnable.Invoke(context.Background(), map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 4, result["x"])
}

func TestStateRunnable_Invoke_NodeError(t *testing.T) {
	t.Parallel()

	cause := errors.New("downstream unavailable")

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("fetch", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return nil, cause
	})
	g.AddEdge("fetch", graph.END)
	g.SetEntryPoint("fetch")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), map[string]any{})
	require.Error(t, err)

	var nodeErr *graph.NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "fetch", nodeErr.Node)
	assert.ErrorIs(t, err, cause)
}

func TestStateRunnable_Invoke_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("spin", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		cancel()
		return state, nil
	})
	g.AddNode("next", "", passthrough)
	g.AddEdge("spin", "next")
	g.AddEdge("next", graph.END)
	g.SetEntryPoint("spin")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(ctx, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateRunnable_StepLimit(t *testing.T) {
	t.Parallel()

	buildLoop := func() *graph.StateGraph[map[string]any] {
		g := graph.NewStateGraph[map[string]any]()
		g.AddNode("loop", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
			state["count"] = state["count"].(int) + 1
			return state, nil
		})
		g.AddConditionalEdges("loop", func(ctx context.Context, state map[string]any) string {
			return "again"
		}, map[string]string{"again": "loop", "done": graph.END})
		g.SetEntryPoint("loop")
		return g
	}

	t.Run("cycle halts at the configured bound", func(t *testing.T) {
		t.Parallel()

		g := buildLoop()
		g.SetStepLimit(7)
		runnable, err := g.Compile()
		require.NoError(t, err)

		_, err = runnable.Invoke(context.Background(), map[string]any{"count": 0})
		require.Error(t, err)

		var limitErr *graph.StepLimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, 7, limitErr.Limit)
	})

	t.Run("exactly limit steps are allowed", func(t *testing.T) {
		t.Parallel()

		g := graph.NewStateGraph[map[string]any]()
		g.AddNode("loop", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
			state["count"] = state["count"].(int) + 1
			return state, nil
		})
		g.AddConditionalEdges("loop", func(ctx context.Context, state map[string]any) string {
			if state["count"].(int) >= 5 {
				return "done"
			}
			return "again"
		}, map[string]string{"again": "loop", "done": graph.END})
		g.SetEntryPoint("loop")
		g.SetStepLimit(5)

		runnable, err := g.Compile()
		require.NoError(t, err)

		result, err := runnable.Invoke(context.Background(), map[string]any{"count": 0})
		require.NoError(t, err)
		assert.Equal(t, 5, result["count"])
	})

	t.Run("config override takes precedence", func(t *testing.T) {
		t.Parallel()

		g := buildLoop()
		runnable, err := g.Compile()
		require.NoError(t, err)

		_, err = runnable.InvokeWithConfig(context.Background(),
			map[string]any{"count": 0},
			&graph.Config{StepLimit: 3},
		)
		require.Error(t, err)

		var limitErr *graph.StepLimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, 3, limitErr.Limit)
	})
}

func TestStateRunnable_Invoke_SharedRunnable(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("tag", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"out": fmt.Sprintf("seen:%v", state["in"])}, nil
	})
	g.AddEdge("tag", graph.END)
	g.SetEntryPoint("tag")

	runnable, err := g.Compile()
	require.NoError(t, err)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			result, err := runnable.Invoke(context.Background(), map[string]any{"in": i})
			if err == nil && result["out"] != fmt.Sprintf("seen:%d", i) {
				err = fmt.Errorf("unexpected output %v", result["out"])
			}
			done <- err
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}
}
