// Package memory provides an in-process CheckpointStore. It is the default
// backend for tests and single-process deployments; checkpoints do not
// survive a restart.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/smallnest/stategraph/store"
)

// CheckpointStore keeps checkpoints in process memory, indexed by id and by
// thread. All operations are safe for concurrent use; writes to the same
// thread are serialized by a single mutex, so two racing runs on one thread
// resolve through the version check rather than by lost update.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	byThread    map[string][]*store.Checkpoint
}

var _ store.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
		byThread:    make(map[string][]*store.Checkpoint),
	}
}

// Save stores a checkpoint, enforcing the monotonic version contract per
// thread.
func (s *CheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint.ID == "" {
		return fmt.Errorf("checkpoint id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timeline := s.byThread[checkpoint.ThreadID]
	if len(timeline) > 0 && checkpoint.Version <= timeline[len(timeline)-1].Version {
		return fmt.Errorf("%w: version %d <= latest %d for thread %s",
			store.ErrStaleCheckpoint, checkpoint.Version, timeline[len(timeline)-1].Version, checkpoint.ThreadID)
	}

	cp := snapshot(checkpoint)
	s.checkpoints[cp.ID] = cp
	s.byThread[cp.ThreadID] = append(timeline, cp)
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *CheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	return snapshot(cp), nil
}

// LatestByThread returns the highest-version checkpoint of a thread.
func (s *CheckpointStore) LatestByThread(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	timeline := s.byThread[threadID]
	if len(timeline) == 0 {
		return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
	}
	return snapshot(timeline[len(timeline)-1]), nil
}

// List returns all checkpoints for a thread in ascending version order.
func (s *CheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	timeline := s.byThread[threadID]
	out := make([]*store.Checkpoint, len(timeline))
	for i, cp := range timeline {
		out[i] = snapshot(cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Delete removes a checkpoint.
func (s *CheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	delete(s.checkpoints, checkpointID)

	timeline := s.byThread[cp.ThreadID]
	for i, tc := range timeline {
		if tc.ID == checkpointID {
			s.byThread[cp.ThreadID] = append(timeline[:i], timeline[i+1:]...)
			break
		}
	}
	return nil
}

// snapshot copies a checkpoint together with its state and metadata. The
// store keeps live values rather than serialized ones, so without the copy a
// node mutating the state map in place would rewrite history already
// committed, and callers could edit stored checkpoints through the returned
// pointers.
func snapshot(cp *store.Checkpoint) *store.Checkpoint {
	out := *cp
	out.State = cloneValue(cp.State)
	if cp.Metadata != nil {
		out.Metadata = cloneValue(cp.Metadata).(map[string]any)
	}
	return &out
}

// cloneValue deep-copies maps and slices; everything else is copied as-is.
func cloneValue(v any) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(rv.Type().Elem(), iter.Value()))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Type().Elem(), rv.Index(i)))
		}
		return out.Interface()
	default:
		return v
	}
}

func cloneElem(t reflect.Type, v reflect.Value) reflect.Value {
	cloned := cloneValue(v.Interface())
	if cloned == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(cloned)
}

// Clear removes all checkpoints for a thread.
func (s *CheckpointStore) Clear(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cp := range s.byThread[threadID] {
		delete(s.checkpoints, cp.ID)
	}
	delete(s.byThread, threadID)
	return nil
}
