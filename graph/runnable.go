package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/stategraph/log"
	"github.com/smallnest/stategraph/store"
)

// StateRunnable represents a compiled state graph that can be invoked. It is
// immutable and safe for concurrent Invoke calls; invocations sharing a
// thread id are serialized by the checkpoint store, not by the runnable.
type StateRunnable[S any] struct {
	graph       *StateGraph[S]
	transitions map[string]transition[S]
	stepLimit   int
	tracer      *Tracer
}

// SetTracer sets a tracer for observability.
func (r *StateRunnable[S]) SetTracer(tracer *Tracer) {
	r.tracer = tracer
}

// GetTracer returns the current tracer.
func (r *StateRunnable[S]) GetTracer() *Tracer {
	return r.tracer
}

// WithTracer returns a new StateRunnable with the given tracer.
func (r *StateRunnable[S]) WithTracer(tracer *Tracer) *StateRunnable[S] {
	return &StateRunnable[S]{
		graph:       r.graph,
		transitions: r.transitions,
		stepLimit:   r.stepLimit,
		tracer:      tracer,
	}
}

// EntryPoint returns the entry node name.
func (r *StateRunnable[S]) EntryPoint() string {
	return r.graph.entryPoint
}

// Invoke executes the compiled state graph with the given input state and
// returns the final state. Execution is a single-token walk: one node runs at
// a time, to completion, until END is reached.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the compiled state graph with the given input
// state and per-invocation config. When the config carries a thread id and
// the graph has a checkpoint store, the run is seeded from the thread's
// latest checkpoint with the input merged on top, and a checkpoint is
// committed after every completed step.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	return r.run(ctx, initialState, config, nil)
}

// run is the shared execution loop behind Invoke and Stream. emit, when
// non-nil, receives one event per completed step.
func (r *StateRunnable[S]) run(ctx context.Context, initialState S, config *Config, emit func(StreamEvent[S])) (S, error) {
	var zero S

	if config != nil {
		ctx = WithConfig(ctx, config)
	}

	runID := uuid.New().String()
	threadID := config.ThreadID()

	state, baseVersion, err := r.resolveInitialState(ctx, initialState, threadID)
	if err != nil {
		return zero, err
	}

	stepLimit := r.stepLimit
	if config != nil && config.StepLimit > 0 {
		stepLimit = config.StepLimit
	}

	var graphSpan *TraceSpan
	if r.tracer != nil {
		graphSpan = r.tracer.StartSpan(ctx, TraceEventGraphStart, "graph")
		graphSpan.State = state
	}
	log.Debug("run %s: starting at %s (thread=%q)", runID, r.graph.entryPoint, threadID)

	current := r.graph.entryPoint
	steps := 0

	for current != END {
		// Cancellation is honored between steps only; an in-flight node runs
		// to completion and its step is not committed.
		select {
		case <-ctx.Done():
			log.Debug("run %s: cancelled at %s", runID, current)
			return zero, ctx.Err()
		default:
		}

		if steps >= stepLimit {
			err := &StepLimitExceededError{Limit: stepLimit, Node: current}
			r.endRun(ctx, graphSpan, state, err)
			return zero, err
		}

		state, err = r.executeNode(ctx, current, state)
		if err != nil {
			r.endRun(ctx, graphSpan, state, err)
			return zero, err
		}

		next, err := r.nextNode(ctx, current, state)
		if err != nil {
			r.endRun(ctx, graphSpan, state, err)
			return zero, err
		}

		steps++

		// The step is complete: node executed, routing resolved. Only now is
		// it committed, so a failing step never reaches the store.
		if err := r.saveCheckpoint(ctx, threadID, current, state, baseVersion+steps, config); err != nil {
			r.endRun(ctx, graphSpan, state, err)
			return zero, err
		}

		if r.tracer != nil {
			span := r.tracer.StartSpan(ctx, TraceEventEdgeTraversal, current)
			span.FromNode = current
			span.ToNode = next
			r.tracer.EndSpan(ctx, span, state, nil)
		}
		if emit != nil {
			emit(StreamEvent[S]{
				Type:      StreamEventStep,
				Node:      current,
				Next:      next,
				State:     state,
				Timestamp: time.Now(),
			})
		}

		current = next
	}

	log.Debug("run %s: reached %s after %d steps", runID, END, steps)
	r.endRun(ctx, graphSpan, state, nil)
	return state, nil
}

// resolveInitialState defaults the input against the schema and, when the
// thread already has a checkpoint, seeds from it with the new input merged on
// top (new-turn fields win). Returns the thread's latest version so that new
// checkpoints continue the timeline.
func (r *StateRunnable[S]) resolveInitialState(ctx context.Context, input S, threadID string) (S, int, error) {
	var zero S

	state := input
	if r.graph.schema != nil {
		merged, err := r.graph.schema.Update(r.graph.schema.Init(), input)
		if err != nil {
			return zero, 0, fmt.Errorf("failed to initialize state with schema: %w", err)
		}
		state = merged
	}

	if threadID == "" || r.graph.checkpointStore == nil {
		return state, 0, nil
	}

	latest, err := r.graph.checkpointStore.LatestByThread(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return state, 0, nil
	}
	if err != nil {
		return zero, 0, &CheckpointError{Op: "load", ThreadID: threadID, Err: err}
	}

	// A checkpoint written by a run of a different state type is ignored
	// rather than corrupting this run.
	seeded, ok := latest.State.(S)
	if !ok {
		log.Warn("thread %s: checkpoint state is %T, ignoring", threadID, latest.State)
		return state, latest.Version, nil
	}

	// Durable stores hand back JSON-shaped values; the schema restores the
	// declared field types before reducers run against them.
	if rh, ok := r.graph.schema.(StateRehydrator[S]); ok {
		restored, err := rh.Rehydrate(seeded)
		if err != nil {
			return zero, 0, fmt.Errorf("failed to restore checkpoint state for thread %s: %w", threadID, err)
		}
		seeded = restored
	}

	if r.graph.schema != nil {
		merged, err := r.graph.schema.Update(seeded, input)
		if err != nil {
			return zero, 0, fmt.Errorf("failed to merge checkpoint state: %w", err)
		}
		return merged, latest.Version, nil
	}
	// Without a schema the new input replaces the checkpoint wholesale.
	return state, latest.Version, nil
}

// executeNode runs one node and folds its result into the state.
func (r *StateRunnable[S]) executeNode(ctx context.Context, name string, state S) (S, error) {
	var zero S

	node := r.graph.nodes[name]

	var nodeSpan *TraceSpan
	if r.tracer != nil {
		nodeSpan = r.tracer.StartSpan(ctx, TraceEventNodeStart, name)
		nodeSpan.State = state
	}
	log.Debug("executing node %s", name)

	result, err := node.Function(ctx, state)
	if err != nil {
		if r.tracer != nil {
			r.tracer.EndSpan(ctx, nodeSpan, zero, err)
			errorSpan := r.tracer.StartSpan(ctx, TraceEventNodeError, name)
			errorSpan.Error = err
			r.tracer.EndSpan(ctx, errorSpan, zero, err)
		}
		return zero, &NodeExecutionError{Node: name, Err: err}
	}

	merged := result
	if r.graph.schema != nil {
		merged, err = r.graph.schema.Update(state, result)
		if err != nil {
			return zero, fmt.Errorf("schema update failed at node %s: %w", name, err)
		}
	}

	if r.tracer != nil {
		r.tracer.EndSpan(ctx, nodeSpan, merged, nil)
	}
	return merged, nil
}

// nextNode resolves the successor of the current node from its frozen
// transition rule. Validation guarantees the rule exists.
func (r *StateRunnable[S]) nextNode(ctx context.Context, current string, state S) (string, error) {
	t := r.transitions[current]
	if t.conditional == nil {
		return t.to, nil
	}

	label := t.conditional.Route(ctx, state)
	target, ok := t.conditional.Targets[label]
	if !ok {
		return "", &RoutingError{Node: current, Label: label}
	}
	return target, nil
}

// saveCheckpoint commits the state for a completed step. It is a no-op
// without a thread id or a configured store.
func (r *StateRunnable[S]) saveCheckpoint(ctx context.Context, threadID, nodeName string, state S, version int, config *Config) error {
	if threadID == "" || r.graph.checkpointStore == nil {
		return nil
	}

	metadata := map[string]any{"event": "step"}
	if config != nil {
		for k, v := range config.Metadata {
			metadata[k] = v
		}
	}

	checkpoint := &store.Checkpoint{
		ID:        fmt.Sprintf("checkpoint_%s", uuid.New().String()),
		ThreadID:  threadID,
		NodeName:  nodeName,
		State:     state,
		Metadata:  metadata,
		Timestamp: time.Now(),
		Version:   version,
	}

	if err := r.graph.checkpointStore.Save(ctx, checkpoint); err != nil {
		return &CheckpointError{Op: "save", ThreadID: threadID, Err: err}
	}
	log.Debug("thread %s: checkpoint v%d after node %s", threadID, version, nodeName)
	return nil
}

func (r *StateRunnable[S]) endRun(ctx context.Context, graphSpan *TraceSpan, state S, err error) {
	if r.tracer != nil && graphSpan != nil {
		r.tracer.EndSpan(ctx, graphSpan, state, err)
	}
}
