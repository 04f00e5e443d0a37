// Package redis provides a CheckpointStore backed by Redis via go-redis.
// Checkpoints are JSON values with a per-thread sorted-set index scored by
// version; an atomic server-side script enforces the monotonic version
// contract across processes. An optional TTL expires idle threads.
//
//	cs := redisstore.NewCheckpointStore(redisstore.Options{
//		Addr: "localhost:6379",
//		TTL:  24 * time.Hour,
//	})
//	defer cs.Close()
//	g.SetCheckpointStore(cs)
package redis
