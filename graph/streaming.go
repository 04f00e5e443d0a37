package graph

import (
	"context"
	"time"
)

// StreamEventType classifies events emitted by Stream.
type StreamEventType string

const (
	// StreamEventStep is emitted after each completed step (node execution
	// plus routing decision), carrying the merged state.
	StreamEventStep StreamEventType = "step"

	// StreamEventEnd is emitted once when the run reaches END, carrying the
	// final state.
	StreamEventEnd StreamEventType = "end"

	// StreamEventError is emitted once when the run halts with an error.
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one observation of a running graph.
type StreamEvent[S any] struct {
	Type StreamEventType

	// Node is the node whose step produced this event.
	Node string

	// Next is the resolved successor (possibly END) for step events.
	Next string

	// State is the merged state after the step, or the final state.
	State S

	// Err is set on error events.
	Err error

	Timestamp time.Time
}

// Stream executes the graph asynchronously, emitting one event per completed
// step followed by a terminal end or error event, then closing the channel.
//
// The algorithm and its guarantees are identical to InvokeWithConfig: a
// single token walks the graph and no two nodes ever execute concurrently
// within one run. Only the caller's consumption is decoupled.
func (r *StateRunnable[S]) Stream(ctx context.Context, initialState S, config *Config) <-chan StreamEvent[S] {
	events := make(chan StreamEvent[S], 16)

	// Sends never block past cancellation, so an abandoned consumer cannot
	// leak the worker goroutine.
	send := func(ev StreamEvent[S]) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)

		final, err := r.run(ctx, initialState, config, send)
		if err != nil {
			send(StreamEvent[S]{
				Type:      StreamEventError,
				Err:       err,
				Timestamp: time.Now(),
			})
			return
		}
		send(StreamEvent[S]{
			Type:      StreamEventEnd,
			State:     final,
			Timestamp: time.Now(),
		})
	}()

	return events
}
