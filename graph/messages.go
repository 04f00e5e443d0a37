package graph

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// AddMessages is a Reducer for conversation history stored as
// []llms.MessageContent: new messages are appended to the existing history
// instead of replacing it. Register it for the "messages" field of chat
// state so that multi-turn runs accumulate context across checkpoints.
func AddMessages(current, new any) (any, error) {
	if new == nil {
		return current, nil
	}

	var history []llms.MessageContent
	switch curr := current.(type) {
	case nil:
	case []llms.MessageContent:
		history = curr
	default:
		return nil, fmt.Errorf("current messages value is %T, want []llms.MessageContent", current)
	}

	switch update := new.(type) {
	case []llms.MessageContent:
		return append(append([]llms.MessageContent{}, history...), update...), nil
	case llms.MessageContent:
		return append(append([]llms.MessageContent{}, history...), update), nil
	default:
		return nil, fmt.Errorf("messages update is %T, want llms.MessageContent or a slice of them", new)
	}
}

// NewMessageGraph creates a StateGraph[map[string]any] preconfigured with a
// schema that accumulates the "messages" field using AddMessages. This is the
// recommended constructor for chat-based workflows.
func NewMessageGraph() *StateGraph[map[string]any] {
	g := NewStateGraph[map[string]any]()

	schema := NewMapSchema()
	schema.RegisterReducer("messages", AddMessages)
	g.SetSchema(schema)

	return g
}
