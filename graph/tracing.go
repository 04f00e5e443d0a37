package graph

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/stategraph/log"
)

// TraceEvent represents different types of events in graph execution.
type TraceEvent string

const (
	// TraceEventGraphStart indicates the start of graph execution
	TraceEventGraphStart TraceEvent = "graph_start"

	// TraceEventGraphEnd indicates the end of graph execution
	TraceEventGraphEnd TraceEvent = "graph_end"

	// TraceEventNodeStart indicates the start of node execution
	TraceEventNodeStart TraceEvent = "node_start"

	// TraceEventNodeEnd indicates the end of node execution
	TraceEventNodeEnd TraceEvent = "node_end"

	// TraceEventNodeError indicates an error occurred in node execution
	TraceEventNodeError TraceEvent = "node_error"

	// TraceEventEdgeTraversal indicates traversal from one node to another
	TraceEventEdgeTraversal TraceEvent = "edge_traversal"
)

// TraceSpan represents a span of execution with timing and metadata.
type TraceSpan struct {
	// ID is a unique identifier for this span
	ID string

	// Event indicates the type of event this span represents
	Event TraceEvent

	// NodeName is the name of the node being executed (if applicable)
	NodeName string

	// FromNode is the source node for edge traversals
	FromNode string

	// ToNode is the destination node for edge traversals
	ToNode string

	// StartTime is when this span began
	StartTime time.Time

	// EndTime is when this span completed (zero for ongoing spans)
	EndTime time.Time

	// Duration is the total time taken (calculated when the span ends)
	Duration time.Duration

	// State is a snapshot of the state at this point (optional)
	State any

	// Error contains any error that occurred during execution
	Error error
}

// TraceHook defines the interface for trace event handlers.
type TraceHook interface {
	// OnEvent is called when a span starts and again when it ends.
	OnEvent(ctx context.Context, span *TraceSpan)
}

// TraceHookFunc is a function adapter for TraceHook.
type TraceHookFunc func(ctx context.Context, span *TraceSpan)

// OnEvent implements the TraceHook interface.
func (f TraceHookFunc) OnEvent(ctx context.Context, span *TraceSpan) {
	f(ctx, span)
}

// Tracer manages trace collection and hooks. A single Tracer may observe
// concurrent runs.
type Tracer struct {
	mu    sync.Mutex
	hooks []TraceHook
	spans []*TraceSpan
}

// NewTracer creates a new tracer instance.
func NewTracer() *Tracer {
	return &Tracer{}
}

// AddHook registers a new trace hook.
func (t *Tracer) AddHook(hook TraceHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// StartSpan opens a span for the given event and notifies hooks.
func (t *Tracer) StartSpan(ctx context.Context, event TraceEvent, nodeName string) *TraceSpan {
	span := &TraceSpan{
		ID:        uuid.New().String(),
		Event:     event,
		NodeName:  nodeName,
		StartTime: time.Now(),
	}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	hooks := t.hooks
	t.mu.Unlock()

	for _, hook := range hooks {
		hook.OnEvent(ctx, span)
	}
	return span
}

// EndSpan closes a span with the final state and error, then notifies hooks.
func (t *Tracer) EndSpan(ctx context.Context, span *TraceSpan, state any, err error) {
	if span == nil {
		return
	}
	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	span.State = state
	span.Error = err

	t.mu.Lock()
	hooks := t.hooks
	t.mu.Unlock()

	for _, hook := range hooks {
		hook.OnEvent(ctx, span)
	}
}

// Spans returns a snapshot of every span observed so far.
func (t *Tracer) Spans() []*TraceSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*TraceSpan, len(t.spans))
	copy(out, t.spans)
	return out
}

// Reset discards all collected spans.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = nil
}

// LoggingHook returns a TraceHook that writes completed spans to the given
// logger at debug level.
func LoggingHook(logger log.Logger) TraceHook {
	return TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		if span.EndTime.IsZero() {
			return
		}
		if span.Error != nil {
			logger.Debug("trace %s node=%s duration=%s error=%v", span.Event, span.NodeName, span.Duration, span.Error)
			return
		}
		logger.Debug("trace %s node=%s duration=%s", span.Event, span.NodeName, span.Duration)
	})
}
