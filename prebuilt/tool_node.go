package prebuilt

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/stategraph/graph"
)

// NewToolNode wraps a langchaingo tool as a graph node. The node reads its
// input from state[inputKey], invokes the tool, and writes the result to
// state[outputKey]. Non-string inputs are formatted with %v.
func NewToolNode(tool tools.Tool, inputKey, outputKey string) graph.NodeFunc[map[string]any] {
	return func(ctx context.Context, state map[string]any) (map[string]any, error) {
		raw, ok := state[inputKey]
		if !ok {
			return nil, fmt.Errorf("tool %q: missing input field %q", tool.Name(), inputKey)
		}
		input, ok := raw.(string)
		if !ok {
			input = fmt.Sprintf("%v", raw)
		}

		result, err := tool.Call(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", tool.Name(), err)
		}
		return map[string]any{outputKey: result}, nil
	}
}

// AddToolNode registers a tool-backed node on the graph, named after the
// tool. The tool's description doubles as the node description.
func AddToolNode(g *graph.StateGraph[map[string]any], tool tools.Tool, inputKey, outputKey string) error {
	return g.AddNode(tool.Name(), tool.Description(), NewToolNode(tool, inputKey, outputKey))
}
