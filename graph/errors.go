package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors reported by graph validation. Each structural problem found
// during Compile wraps one of these, so callers can match with errors.Is.
var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrDuplicateNode is returned when a node name is registered twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrUnknownNode is returned when an edge endpoint or the entry point names
	// a node that was never registered.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnreachableNode is returned when a registered node cannot be reached
	// from the entry point. Typos in edge wiring usually surface here.
	ErrUnreachableNode = errors.New("node unreachable from entry point")

	// ErrConflictingEdges is returned when a node has more than one transition
	// rule (two fixed edges, or a fixed edge alongside conditional edges).
	ErrConflictingEdges = errors.New("conflicting transition rules")

	// ErrNoOutgoingEdge is returned when a node has no transition rule at all,
	// so a run reaching it could never terminate normally.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")
)

// GraphValidationError is returned by Compile when the accumulated graph is
// structurally unsound. It collects every issue found, so a single compile
// attempt reports all problems at once.
type GraphValidationError struct {
	Issues []error
}

func (e *GraphValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return fmt.Sprintf("graph validation failed: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes the individual issues for errors.Is / errors.As matching.
func (e *GraphValidationError) Unwrap() []error {
	return e.Issues
}

// NodeExecutionError is returned when a node's transition function fails. It
// carries the node name for diagnostics and wraps the underlying cause.
type NodeExecutionError struct {
	Node string
	Err  error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("error in node %s: %v", e.Node, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// RoutingError is returned when a routing function produces a label that is
// not mapped in the conditional edge's targets.
type RoutingError struct {
	Node  string
	Label string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("conditional edge from %s: no target mapped for label %q", e.Node, e.Label)
}

// StepLimitExceededError is returned when a run exceeds the configured step
// bound. It guards against unproductive cycles; cycles themselves are legal.
type StepLimitExceededError struct {
	Limit int
	Node  string
}

func (e *StepLimitExceededError) Error() string {
	return fmt.Sprintf("step limit %d exceeded at node %s", e.Limit, e.Node)
}

// CheckpointError is returned when the checkpoint backend fails during a run.
type CheckpointError struct {
	// Op is the operation that failed ("save" or "load").
	Op string
	// ThreadID is the thread whose timeline was being accessed.
	ThreadID string
	// Err is the underlying error.
	Err error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}
