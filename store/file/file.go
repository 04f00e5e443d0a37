// Package file provides a CheckpointStore persisted as JSON files on disk.
// Each thread gets its own subdirectory with one file per checkpoint, so a
// process restart resumes exactly where the thread left off.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/smallnest/stategraph/store"
)

// CheckpointStore persists checkpoints under a root directory:
//
//	<root>/<thread id>/<version>_<checkpoint id>.json
//
// The version prefix in the file name keeps directory listings in timeline
// order without reading file contents. Concurrent writers are serialized by
// a process-wide mutex; cross-process callers need their own coordination.
type CheckpointStore struct {
	mu   sync.Mutex
	root string
}

var _ store.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a file-based checkpoint store rooted at path,
// creating the directory if needed.
func NewCheckpointStore(path string) (*CheckpointStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &CheckpointStore{root: path}, nil
}

func (s *CheckpointStore) threadDir(threadID string) string {
	if threadID == "" {
		threadID = "_default"
	}
	return filepath.Join(s.root, threadID)
}

func checkpointFileName(cp *store.Checkpoint) string {
	return fmt.Sprintf("%012d_%s.json", cp.Version, cp.ID)
}

// Save stores a checkpoint, enforcing the monotonic version contract.
func (s *CheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint.ID == "" {
		return fmt.Errorf("checkpoint id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.threadDir(checkpoint.ThreadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}

	if latest, err := s.latestLocked(checkpoint.ThreadID); err == nil && checkpoint.Version <= latest.Version {
		return fmt.Errorf("%w: version %d <= latest %d for thread %s",
			store.ErrStaleCheckpoint, checkpoint.Version, latest.Version, checkpoint.ThreadID)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path := filepath.Join(dir, checkpointFileName(checkpoint))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID, scanning every thread directory.
func (s *CheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	var found *store.Checkpoint

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !strings.HasSuffix(d.Name(), "_"+checkpointID+".json") {
			return nil
		}
		cp, err := readCheckpoint(path)
		if err != nil {
			return err
		}
		found = cp
		return fs.SkipAll
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkpoints: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
	}
	return found, nil
}

// LatestByThread returns the highest-version checkpoint of a thread.
func (s *CheckpointStore) LatestByThread(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestLocked(threadID)
}

func (s *CheckpointStore) latestLocked(threadID string) (*store.Checkpoint, error) {
	names, err := s.sortedFiles(threadID)
	if err != nil || len(names) == 0 {
		return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
	}
	return readCheckpoint(filepath.Join(s.threadDir(threadID), names[len(names)-1]))
}

// List returns all checkpoints for a thread in ascending version order. It
// holds the store mutex so a concurrent Save cannot interleave between the
// listing and the reads.
func (s *CheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.sortedFiles(threadID)
	if err != nil {
		return nil, err
	}

	checkpoints := make([]*store.Checkpoint, 0, len(names))
	for _, name := range names {
		cp, err := readCheckpoint(filepath.Join(s.threadDir(threadID), name))
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, nil
}

// Delete removes a checkpoint.
func (s *CheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	cp, err := s.Load(ctx, checkpointID)
	if err != nil {
		return err
	}
	path := filepath.Join(s.threadDir(cp.ThreadID), checkpointFileName(cp))
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes all checkpoints for a thread.
func (s *CheckpointStore) Clear(ctx context.Context, threadID string) error {
	err := os.RemoveAll(s.threadDir(threadID))
	if err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

func (s *CheckpointStore) sortedFiles(threadID string) ([]string, error) {
	entries, err := os.ReadDir(s.threadDir(threadID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thread directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readCheckpoint(path string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}
