// Package sqlite provides a CheckpointStore backed by SQLite via
// mattn/go-sqlite3. It suits single-node deployments that need checkpoints
// to survive restarts without running a database server.
//
// The version-guarded insert enforces the monotonic version contract inside
// the database, so multiple connections writing the same thread are safe.
//
//	cs, err := sqlite.NewCheckpointStore(sqlite.Options{Path: "checkpoints.db"})
//	if err != nil {
//		// handle
//	}
//	defer cs.Close()
//	g.SetCheckpointStore(cs)
package sqlite
