package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// cache is a bounded in-memory KV store with a pluggable eviction policy.
// A single lock guards the whole entry set: eviction scans need a consistent
// view of every entry, so there is no per-entry or per-shard locking.
type cache[V any] struct {
	// ---- guarded by mu ----
	mu       sync.RWMutex
	m        map[string]*entry[V]
	head     *entry[V] // MRU
	tail     *entry[V] // LRU
	bytes    int64
	high     map[string]struct{}
	frequent map[string]struct{}

	hits      uint64
	misses    uint64
	evictions uint64

	opt    Options[V]
	closed atomic.Bool

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs a cache with the provided Options.
// It returns ErrInvalidOptions (wrapped) when Capacity is not positive or a
// duration/ratio is out of range.
func New[V any](opt Options[V]) (Cache[V], error) {
	opt, err := opt.withDefaults()
	if err != nil {
		return nil, err
	}

	c := &cache[V]{
		m:        make(map[string]*entry[V], opt.Capacity),
		high:     make(map[string]struct{}),
		frequent: make(map[string]struct{}),
		opt:      opt,
	}
	if opt.CleanupInterval > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.sweep(opt.CleanupInterval)
	}

	opt.Logger.Debug("cache initialized",
		"capacity", opt.Capacity,
		"max_bytes", opt.MaxBytes,
		"ttl", opt.TTL,
	)
	return c, nil
}

// ---- Cache[V] implementation ----

// Get returns the value for key and a presence flag.
func (c *cache[V]) Get(key string) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		c.missLocked()
		return zero, false
	}
	now := c.now()
	if c.expired(e, now) {
		c.removeLocked(e)
		c.notifyEvict(e, EvictTTL)
		c.missLocked()
		c.reportLocked()
		return zero, false
	}

	e.hits++
	e.accessed = now
	c.moveToFront(e)
	if e.hits > c.opt.FrequentHits {
		c.frequent[key] = struct{}{}
	}
	c.hits++
	c.opt.Metrics.Hit()
	return e.val, true
}

// Put inserts or replaces key→v at MRU.
func (c *cache[V]) Put(key string, v V, priority int) bool {
	if c.closed.Load() {
		return false
	}
	size := c.opt.Size(v)
	if size > c.opt.MaxBytes {
		c.opt.Logger.Warn("cache entry exceeds byte budget",
			"key", key, "size", size, "max_bytes", c.opt.MaxBytes)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.insertLocked(&entry[V]{
		key:      key,
		val:      v,
		priority: priority,
		created:  now,
		accessed: now,
		size:     size,
	}, now)
	c.reportLocked()

	c.opt.Logger.Debug("cached entry", "key", key, "priority", priority, "size", size)
	return true
}

// Remove deletes key if present. Explicit removal is not an eviction.
func (c *cache[V]) Remove(key string) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		return false
	}
	c.removeLocked(e)
	c.reportLocked()
	return true
}

// Clear empties the cache and resets every counter.
func (c *cache[V]) Clear() {
	if c.closed.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.hits, c.misses, c.evictions = 0, 0, 0
	c.reportLocked()
	c.opt.Logger.Info("cache cleared")
}

// Len returns the number of resident entries.
func (c *cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Stats returns a snapshot of the counters.
func (c *cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		Entries:      len(c.m),
		Bytes:        c.bytes,
		BytesMB:      float64(c.bytes) / (1 << 20),
		HighPriority: len(c.high),
		Frequent:     len(c.frequent),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Entries returns per-entry diagnostics.
func (c *cache[V]) Entries() []EntryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	out := make([]EntryInfo, 0, len(c.m))
	for e := c.tail; e != nil; e = e.prev {
		_, hp := c.high[e.key]
		_, fr := c.frequent[e.key]
		out = append(out, EntryInfo{
			Key:          e.key,
			Priority:     e.priority,
			Size:         e.size,
			Age:          time.Duration(now - e.created),
			Idle:         time.Duration(now - e.accessed),
			AccessCount:  e.hits,
			HighPriority: hp,
			Frequent:     fr,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].AccessCount > out[j].AccessCount
	})
	return out
}

// CleanupExpired removes every entry older than the TTL.
func (c *cache[V]) CleanupExpired() int {
	if c.closed.Load() {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	if c.opt.TTL > 0 {
		for e := c.tail; e != nil; {
			prev := e.prev
			if c.expired(e, now) {
				c.removeLocked(e)
				c.notifyEvict(e, EvictTTL)
				n++
			}
			e = prev
		}
	}
	c.pruneFrequentLocked(now)
	c.reportLocked()
	if n > 0 {
		c.opt.Logger.Info("cleaned up expired cache entries", "count", n)
	}
	return n
}

// GetOrLoad returns the value for key; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight).
// If no Loader is configured, returns ErrNoLoader.
func (c *cache[V]) GetOrLoad(ctx context.Context, key string) (V, error) {
	var zero V
	// fast path
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		return zero, ErrNoLoader
	}

	// singleflight: exactly one real load for the key
	ch := c.sf.DoChan(key, func() (any, error) {
		// double-check after flight join, without touching hit/miss counters
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		// Joined callers share this load, so one caller's cancellation must
		// not fail the others.
		v, prio, err := c.opt.Loader(context.WithoutCancel(ctx), key)
		if err != nil {
			return v, err
		}
		if !c.Put(key, v, prio) {
			c.opt.Logger.Warn("loaded value not cached", "key", key)
		}
		return v, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close marks the cache as closed and stops the sweeper.
func (c *cache[V]) Close() error {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		if c.stop != nil {
			close(c.stop)
			<-c.done
		}
	})
	return nil
}

// ---- helpers ----

// sweep runs CleanupExpired every interval until Close.
func (c *cache[V]) sweep(interval time.Duration) {
	defer close(c.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.CleanupExpired()
		}
	}
}

// peek reports a live value without recording an access.
func (c *cache[V]) peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok || c.expired(e, c.now()) {
		var zero V
		return zero, false
	}
	return e.val, true
}

func (c *cache[V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (c *cache[V]) expired(e *entry[V], now int64) bool {
	return c.opt.TTL > 0 && now-e.created > int64(c.opt.TTL)
}

func (c *cache[V]) missLocked() {
	c.misses++
	c.opt.Metrics.Miss()
}

func (c *cache[V]) notifyEvict(e *entry[V], reason EvictReason) {
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(e.key, e.val, reason)
	}
}

func (c *cache[V]) reportLocked() {
	c.opt.Metrics.Size(len(c.m), c.bytes)
	c.opt.Metrics.Protected(len(c.high), len(c.frequent))
}
