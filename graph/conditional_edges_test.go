package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/stategraph/graph"
	"github.com/smallnest/stategraph/store"
	"github.com/smallnest/stategraph/store/memory"
)

// buildClassifier wires: classify -(big|small)-> handler -> END, routing on
// message length.
func buildClassifier() *graph.StateGraph[map[string]any] {
	g := graph.NewStateGraph[map[string]any]()

	g.AddNode("classify", "inspect the message", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return state, nil
	})
	g.AddNode("big_handler", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"handled_by": "big"}, nil
	})
	g.AddNode("small_handler", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"handled_by": "small"}, nil
	})

	g.AddConditionalEdges("classify", func(ctx context.Context, state map[string]any) string {
		msg, _ := state["message"].(string)
		if len(msg) > 10 {
			return "big"
		}
		return "small"
	}, map[string]string{
		"big":   "big_handler",
		"small": "small_handler",
	})

	g.AddEdge("big_handler", graph.END)
	g.AddEdge("small_handler", graph.END)
	g.SetEntryPoint("classify")
	return g
}

func TestConditionalEdges_Routing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"long message routes to big handler", "this message is clearly long", "big"},
		{"short message routes to small handler", "hi", "small"},
	}

	runnable, err := buildClassifier().Compile()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := runnable.Invoke(context.Background(), map[string]any{"message": tt.message})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result["handled_by"])
		})
	}
}

func TestConditionalEdges_RouteToEnd(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("check", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return state, nil
	})
	g.AddNode("process", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"value": state["value"].(int) * 2}, nil
	})
	g.AddConditionalEdges("check", func(ctx context.Context, state map[string]any) string {
		if state["value"].(int) < 0 {
			return "skip"
		}
		return "run"
	}, map[string]string{"skip": graph.END, "run": "process"})
	g.AddEdge("process", graph.END)
	g.SetEntryPoint("check")

	runnable, err := g.Compile()
	require.NoError(t, err)

	result, err := runnable.Invoke(context.Background(), map[string]any{"value": -5})
	require.NoError(t, err)
	assert.Equal(t, -5, result["value"])

	result, err = runnable.Invoke(context.Background(), map[string]any{"value": 5})
	require.NoError(t, err)
	assert.Equal(t, 10, result["value"])
}

func TestConditionalEdges_UnmappedLabel(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("decide", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return state, nil
	})
	g.AddNode("target", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return state, nil
	})
	g.AddConditionalEdges("decide", func(ctx context.Context, state map[string]any) string {
		return "nowhere"
	}, map[string]string{"go": "target"})
	g.AddEdge("target", graph.END)
	g.SetEntryPoint("decide")

	cs := memory.NewCheckpointStore()
	g.SetCheckpointStore(cs)

	runnable, err := g.Compile()
	require.NoError(t, err)

	ctx := context.Background()
	_, err = runnable.InvokeWithConfig(ctx, map[string]any{}, graph.WithThreadID("t-route"))
	require.Error(t, err)

	var routingErr *graph.RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Equal(t, "decide", routingErr.Node)
	assert.Equal(t, "nowhere", routingErr.Label)

	// The failed step must not reach the store.
	_, err = cs.LatestByThread(ctx, "t-route")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConditionalEdges_LabelResolvedPerStep(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	g.AddNode("work", "", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		state["rounds"] = state["rounds"].(int) + 1
		return state, nil
	})
	g.AddConditionalEdges("work", func(ctx context.Context, state map[string]any) string {
		if state["rounds"].(int) >= 3 {
			return "done"
		}
		return "more"
	}, map[string]string{"more": "work", "done": graph.END})
	g.SetEntryPoint("work")

	runnable, err := g.Compile()
	require.NoError(t, err)

	result, err := runnable.Invoke(context.Background(), map[string]any{"rounds": 0})
	require.NoError(t, err)
	assert.Equal(t, 3, result["rounds"])
}
