package prebuilt

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/stategraph/graph"
	"github.com/smallnest/stategraph/store"
	"github.com/smallnest/stategraph/store/memory"
)

// ChatAgent is a multi-turn conversational agent built on the execution
// engine. Each agent owns one thread: successive Send calls re-run the
// conversation graph from its entry point with state seeded from the
// thread's latest checkpoint, so the message history and turn counter
// accumulate across turns. Distinct agents (distinct thread ids) never
// observe each other's state, even when sharing a checkpoint store.
type ChatAgent struct {
	runnable *graph.StateRunnable[map[string]any]
	schema   *graph.MapSchema
	threadID string
	model    llms.Model
	options  chatAgentOptions
}

type chatAgentOptions struct {
	systemPrompt    string
	checkpointStore store.CheckpointStore
	threadID        string
}

// ChatAgentOption customizes a ChatAgent.
type ChatAgentOption func(*chatAgentOptions)

// WithSystemPrompt sets the system prompt prepended to every model call.
func WithSystemPrompt(prompt string) ChatAgentOption {
	return func(o *chatAgentOptions) {
		o.systemPrompt = prompt
	}
}

// WithCheckpointStore uses the given store instead of a private in-memory
// one, so the conversation survives process restarts with a durable backend.
func WithCheckpointStore(cs store.CheckpointStore) ChatAgentOption {
	return func(o *chatAgentOptions) {
		o.checkpointStore = cs
	}
}

// WithSessionID pins the agent to an existing thread id instead of a fresh
// random one, resuming that thread's conversation.
func WithSessionID(id string) ChatAgentOption {
	return func(o *chatAgentOptions) {
		o.threadID = id
	}
}

// NewChatAgent creates a conversational agent over the given model.
func NewChatAgent(model llms.Model, opts ...ChatAgentOption) (*ChatAgent, error) {
	options := chatAgentOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.checkpointStore == nil {
		options.checkpointStore = memory.NewCheckpointStore()
	}
	if options.threadID == "" {
		options.threadID = uuid.New().String()
	}

	runnable, schema, err := buildChatGraph(model, options)
	if err != nil {
		return nil, err
	}

	return &ChatAgent{
		runnable: runnable,
		schema:   schema,
		threadID: options.threadID,
		model:    model,
		options:  options,
	}, nil
}

// buildChatGraph wires the two-node conversation graph:
//
//	ingest (record the user turn) -> respond (call the model) -> END
func buildChatGraph(model llms.Model, options chatAgentOptions) (*graph.StateRunnable[map[string]any], *graph.MapSchema, error) {
	g := graph.NewStateGraph[map[string]any]()

	schema := graph.NewMapSchema()
	schema.RegisterField("input", graph.FieldSpec{Default: ""})
	schema.RegisterField("response", graph.FieldSpec{Default: ""})
	schema.RegisterField("turn_count", graph.FieldSpec{Default: 0, Reducer: graph.CountReducer})
	schema.RegisterField("messages", graph.FieldSpec{
		Type:    reflect.TypeOf([]llms.MessageContent{}),
		Reducer: graph.AddMessages,
	})
	g.SetSchema(schema)
	g.SetCheckpointStore(options.checkpointStore)

	if err := g.AddNode("ingest", "record the user turn", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		input, _ := state["input"].(string)
		if input == "" {
			return nil, fmt.Errorf("empty user input")
		}
		return map[string]any{
			"messages":   []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, input)},
			"turn_count": 1,
		}, nil
	}); err != nil {
		return nil, nil, err
	}

	if err := g.AddNode("respond", "call the model with the history", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		history, _ := state["messages"].([]llms.MessageContent)

		var prompt []llms.MessageContent
		if options.systemPrompt != "" {
			prompt = append(prompt, llms.TextParts(llms.ChatMessageTypeSystem, options.systemPrompt))
		}
		prompt = append(prompt, history...)

		resp, err := model.GenerateContent(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("model returned no choices")
		}
		reply := resp.Choices[0].Content

		return map[string]any{
			"messages": []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeAI, reply)},
			"response": reply,
		}, nil
	}); err != nil {
		return nil, nil, err
	}

	g.SetEntryPoint("ingest")
	g.AddEdge("ingest", "respond")
	g.AddEdge("respond", graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, nil, err
	}
	return runnable, schema, nil
}

// SessionID returns the thread id of this conversation.
func (c *ChatAgent) SessionID() string {
	return c.threadID
}

// Send submits one user turn and returns the model's reply. The full history
// is carried by the thread's checkpoints, not by this call.
func (c *ChatAgent) Send(ctx context.Context, input string) (string, error) {
	final, err := c.runnable.InvokeWithConfig(ctx,
		map[string]any{"input": input},
		graph.WithThreadID(c.threadID),
	)
	if err != nil {
		return "", err
	}
	reply, _ := final["response"].(string)
	return reply, nil
}

// History returns the accumulated conversation so far, reconstructed from
// the thread's latest checkpoint. A fresh agent has an empty history.
func (c *ChatAgent) History(ctx context.Context) ([]llms.MessageContent, error) {
	state, err := c.latestState(ctx)
	if err != nil || state == nil {
		return nil, err
	}
	history, _ := state["messages"].([]llms.MessageContent)
	return history, nil
}

// TurnCount returns the number of completed user turns in this conversation.
func (c *ChatAgent) TurnCount(ctx context.Context) (int, error) {
	state, err := c.latestState(ctx)
	if err != nil || state == nil {
		return 0, err
	}
	count, _ := state["turn_count"].(int)
	return count, nil
}

// latestState loads the thread's latest checkpoint state, rehydrated through
// the conversation schema so durable backends return typed values. A thread
// with no checkpoints yet yields nil.
func (c *ChatAgent) latestState(ctx context.Context) (map[string]any, error) {
	latest, err := c.options.checkpointStore.LatestByThread(ctx, c.threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	state, ok := latest.State.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("checkpoint state is %T, want map[string]any", latest.State)
	}
	return c.schema.Rehydrate(state)
}
