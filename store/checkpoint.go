package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no checkpoint exists for the requested id
	// or thread.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStaleCheckpoint is returned by Save when the checkpoint's version is
	// not greater than the latest stored version for its thread. Version
	// numbers increase monotonically within a thread, which lets concurrent
	// writers detect lost updates instead of silently overwriting each other.
	ErrStaleCheckpoint = errors.New("stale checkpoint version")
)

// Checkpoint represents a saved state snapshot for a thread at a specific
// point in execution. Each thread has one logical timeline, ordered by
// Version.
type Checkpoint struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	NodeName  string         `json:"node_name"`
	State     any            `json:"state"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// checkpointAlias breaks the MarshalJSON/UnmarshalJSON recursion.
type checkpointAlias Checkpoint

// MarshalJSON serializes the checkpoint with its state routed through the
// default type registry, so registered state types survive the round trip
// through JSON-backed stores.
func (c *Checkpoint) MarshalJSON() ([]byte, error) {
	stateJSON, err := MarshalState(c.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint state: %w", err)
	}
	return json.Marshal(&struct {
		*checkpointAlias
		State json.RawMessage `json:"state"`
	}{(*checkpointAlias)(c), stateJSON})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	aux := struct {
		*checkpointAlias
		State json.RawMessage `json:"state"`
	}{checkpointAlias: (*checkpointAlias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	state, err := UnmarshalState(aux.State)
	if err != nil {
		return fmt.Errorf("failed to unmarshal checkpoint state: %w", err)
	}
	c.State = state
	return nil
}

// CheckpointStore defines the interface for checkpoint persistence.
//
// Implementations must serialize concurrent Save calls for the same thread
// (the execution engine deliberately does not); two racing writers are
// resolved by the monotonic version check, with the loser receiving
// ErrStaleCheckpoint.
type CheckpointStore interface {
	// Save stores a checkpoint. Fails with ErrStaleCheckpoint when the
	// version does not advance the thread's timeline.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// LatestByThread returns the highest-version checkpoint of a thread, or
	// ErrNotFound when the thread has no timeline yet.
	LatestByThread(ctx context.Context, threadID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread in ascending version order.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a thread.
	Clear(ctx context.Context, threadID string) error
}
