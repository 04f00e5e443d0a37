// Package store defines the checkpoint persistence contract used by the
// execution engine for multi-turn state accumulation.
//
// A Checkpoint is a snapshot of graph state for one thread at one version;
// each thread owns a single timeline ordered by version. The engine only
// needs the latest checkpoint to resume a thread, but the full timeline is
// retained so stale writes are detectable: Save must reject any checkpoint
// whose version does not advance the thread's timeline (ErrStaleCheckpoint).
//
// Same-thread concurrency is the store's responsibility. Two Invoke calls
// racing on one thread id are not serialized by the engine; backends resolve
// the race either with in-process locking (memory, file) or transactionally
// (sqlite, postgres, redis), and the losing writer gets ErrStaleCheckpoint
// rather than silently clobbering the winner.
//
// Available backends:
//
//   - store/memory: in-process maps, no durability. The default for tests.
//   - store/file: JSON files under a directory per thread.
//   - store/sqlite: single-file durability via mattn/go-sqlite3.
//   - store/postgres: shared durability via jackc/pgx.
//   - store/redis: low-latency shared storage via go-redis, optional TTL.
//
// All backends store state as JSON (except memory, which keeps live values),
// so map[string]any state round-trips losslessly while struct state follows
// encoding/json conventions.
package store
