// Package cache provides a bounded, priority-aware in-memory cache with TTL
// expiry, an entry-count limit and a byte budget, frequency tracking and
// best-effort snapshots.
//
// Design
//
//   - Concurrency: one RWMutex guards the whole entry set. Get takes the write
//     lock because it updates access bookkeeping. Eviction scans need a
//     consistent view of every entry, so the cache is not sharded.
//
//   - Storage: a map[string]*entry for lookups and an intrusive MRU↔LRU doubly
//     linked list for recency order.
//
//   - Budgets: Put evicts until both the entry count (Capacity) and the byte
//     budget (MaxBytes, accounted with Options.Size) leave room for the new
//     entry. A value larger than MaxBytes on its own is rejected and Put
//     returns false without modifying the cache.
//
//   - Protection: entries with priority above HighPriorityThreshold (default
//     50) are skipped by eviction until the entry count reaches
//     PressureRatio*Capacity (default 90%). Entries read more than FrequentHits
//     times (default 5) are skipped while their last read is within
//     FrequentWindow (default 30m).
//
//   - Policies: the default policy (policy/priority) scores the remaining
//     entries as priority + accesses*10 − ageHours − 2*idleHours and evicts the
//     lowest. If every entry is protected the LRU entry is evicted instead, so
//     Put always terminates.
//
//   - TTL: expiry is lazy on Get; CleanupExpired sweeps proactively and
//     Options.CleanupInterval runs it in the background until Close.
//
//   - Snapshots: SaveSnapshot/LoadSnapshot persist entries as JSON with an
//     xxhash checksum. A failed load leaves the live cache untouched.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size/Protected signals.
//     By default NoopMetrics is used; see metrics/prom for a Prometheus adapter.
//
// Basic usage
//
//	c, err := cache.New[[]byte](cache.Options[[]byte]{
//	    Capacity: 1000,
//	    MaxBytes: 64 << 20,
//	    TTL:      time.Hour,
//	    Size:     sizer.Bytes,
//	})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	c.Put("report.pdf", rendered, 40)
//	if v, ok := c.Get("report.pdf"); ok {
//	    _ = v
//	}
//
// With GetOrLoad (singleflight)
//
//	c, _ := cache.New[string](cache.Options[string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, int, error) {
//	        return render(ctx, k), 30, nil
//	    },
//	})
//	v, err := c.GetOrLoad(ctx, "key")
package cache
