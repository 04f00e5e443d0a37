package prebuilt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/stategraph/graph"
)

// upperTool upcases its input.
type upperTool struct {
	err error
}

func (u *upperTool) Name() string        { return "upper" }
func (u *upperTool) Description() string { return "uppercases text" }

func (u *upperTool) Call(ctx context.Context, input string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return strings.ToUpper(input), nil
}

func TestNewToolNode(t *testing.T) {
	t.Parallel()

	node := NewToolNode(&upperTool{}, "query", "result")

	out, err := node(context.Background(), map[string]any{"query": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out["result"])
}

func TestNewToolNode_MissingInput(t *testing.T) {
	t.Parallel()

	node := NewToolNode(&upperTool{}, "query", "result")

	_, err := node(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestNewToolNode_NonStringInput(t *testing.T) {
	t.Parallel()

	node := NewToolNode(&upperTool{}, "query", "result")

	out, err := node(context.Background(), map[string]any{"query": 42})
	require.NoError(t, err)
	assert.Equal(t, "42", out["result"])
}

func TestNewToolNode_ToolError(t *testing.T) {
	t.Parallel()

	cause := errors.New("backend down")
	node := NewToolNode(&upperTool{err: cause}, "query", "result")

	_, err := node(context.Background(), map[string]any{"query": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestAddToolNode_InGraph(t *testing.T) {
	t.Parallel()

	g := graph.NewStateGraph[map[string]any]()
	require.NoError(t, AddToolNode(g, &upperTool{}, "query", "result"))
	g.AddEdge("upper", graph.END)
	g.SetEntryPoint("upper")

	runnable, err := g.Compile()
	require.NoError(t, err)

	out, err := runnable.Invoke(context.Background(), map[string]any{"query": "graph"})
	require.NoError(t, err)
	assert.Equal(t, "GRAPH", out["result"])
}
