package graph

import "context"

// Config carries per-invocation settings. A nil Config is valid everywhere
// one is accepted.
type Config struct {
	// Configurable holds caller-scoped values; the engine reads "thread_id"
	// to correlate state across invocations.
	Configurable map[string]any

	// StepLimit overrides the graph's step bound for this invocation when
	// greater than zero.
	StepLimit int

	// Metadata is attached to every checkpoint written during the run.
	Metadata map[string]any
}

// ThreadID returns the thread id carried by the config, if any.
func (c *Config) ThreadID() string {
	if c == nil || c.Configurable == nil {
		return ""
	}
	tid, _ := c.Configurable["thread_id"].(string)
	return tid
}

// WithThreadID creates a Config with the given thread_id set in the
// configurable map. Successive invocations sharing a thread id accumulate
// state through the checkpoint store.
//
// Example:
//
//	result, err := runnable.InvokeWithConfig(ctx, state, graph.WithThreadID("conversation-1"))
func WithThreadID(threadID string) *Config {
	return &Config{
		Configurable: map[string]any{
			"thread_id": threadID,
		},
	}
}

type configKey struct{}

// WithConfig injects the invocation config into the context, where node
// functions can inspect it.
func WithConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// ConfigFromContext retrieves the invocation config from the context, or nil.
func ConfigFromContext(ctx context.Context) *Config {
	config, _ := ctx.Value(configKey{}).(*Config)
	return config
}
