package cache

import (
	"context"
	"time"
)

// Cache is a bounded, priority-aware key/value cache.
// All methods are safe for concurrent use by multiple goroutines.
//
// Values are treated as immutable once stored: callers must not mutate a value
// after Put or one returned by Get, since its size was accounted at insertion.
type Cache[V any] interface {
	// Get returns the value for key and whether it was a hit.
	// Expired entries are removed and reported as misses.
	// On hit, the entry's access count and recency are updated.
	Get(key string) (V, bool)

	// Put inserts or replaces key→v with the given priority, evicting entries
	// as needed. It returns false, leaving the cache unchanged, when v alone
	// exceeds the byte budget.
	Put(key string, v V, priority int) bool

	// Remove deletes key if present and returns true on success.
	Remove(key string) bool

	// Clear removes every entry and resets all counters, hits and misses included.
	Clear()

	// Len returns the number of resident entries.
	Len() int

	// Stats returns a snapshot of the counters.
	Stats() Stats

	// Entries returns per-entry diagnostics ordered by priority, then access count.
	Entries() []EntryInfo

	// CleanupExpired removes every expired entry and returns how many were removed.
	CleanupExpired() int

	// SaveSnapshot writes the non-expired entries and protection sets to path.
	SaveSnapshot(path string) error

	// LoadSnapshot replaces the cache contents with the snapshot at path.
	// Expired entries are skipped. If the snapshot exceeds Capacity or
	// MaxBytes, only the most recently used entries that fit are kept; the
	// rest are dropped without counting as evictions or calling OnEvict.
	// On error the live contents are left untouched.
	LoadSnapshot(path string) error

	// GetOrLoad returns the value for key, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced (singleflight).
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, key string) (V, error)

	// Close stops the background sweeper (if any) and marks the cache closed.
	// Later operations are no-ops returning zero values.
	Close() error
}

// Stats is a point-in-time view of the cache counters.
// Hits, Misses and Evictions are monotonic until Clear.
type Stats struct {
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	Evictions    uint64  `json:"evictions"`
	Entries      int     `json:"entries"`
	Bytes        int64   `json:"bytes"`
	HitRate      float64 `json:"hit_rate"`
	BytesMB      float64 `json:"bytes_mb"`
	HighPriority int     `json:"high_priority_count"`
	Frequent     int     `json:"frequent_count"`
}

// EntryInfo describes one resident entry. It is meant for monitoring and
// export, not for programmatic branching.
type EntryInfo struct {
	Key          string        `json:"key"`
	Priority     int           `json:"priority"`
	Size         int64         `json:"size"`
	Age          time.Duration `json:"age"`
	Idle         time.Duration `json:"idle"`
	AccessCount  uint64        `json:"access_count"`
	HighPriority bool          `json:"is_high_priority"`
	Frequent     bool          `json:"is_frequent"`
}
