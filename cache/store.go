package cache

import "github.com/IvanBrykalov/artifactcache/policy"

// -------------------- internals (mu held) --------------------

// insertLocked replaces any entry under e.key, makes room and links e at MRU.
// The caller guarantees e.size <= MaxBytes, so makeSpaceLocked terminates with
// room for e.
func (c *cache[V]) insertLocked(e *entry[V], now int64) {
	if old, ok := c.m[e.key]; ok {
		c.removeLocked(old)
	}
	c.makeSpaceLocked(e.size, now)

	c.m[e.key] = e
	c.pushFront(e)
	if e.priority > c.opt.HighPriorityThreshold {
		c.high[e.key] = struct{}{}
	}
}

// makeSpaceLocked evicts until one more entry of the given size fits both the
// entry and the byte limits.
func (c *cache[V]) makeSpaceLocked(size, now int64) {
	c.pruneFrequentLocked(now)
	for len(c.m) > 0 && (len(c.m) >= c.opt.Capacity || c.bytes+size > c.opt.MaxBytes) {
		c.evictOneLocked(now)
	}
}

// evictOneLocked asks the policy for a victim and removes it. If the policy
// has no answer (or names an unknown key) the LRU tail is removed instead.
func (c *cache[V]) evictOneLocked(now int64) {
	var victim *entry[V]
	reason := EvictPolicy

	if d, ok := c.opt.Policy.Victim(storeView[V]{c: c, now: now}); ok {
		victim = c.m[d.Key]
		if d.Fallback {
			reason = EvictFallback
		}
	}
	if victim == nil {
		victim, reason = c.tail, EvictFallback
	}

	c.removeLocked(victim)
	c.evictions++
	c.notifyEvict(victim, reason)
	c.opt.Logger.Debug("evicted cache entry",
		"key", victim.key, "priority", victim.priority, "reason", reason.String())
}

// pruneFrequentLocked drops frequent-set members whose last read is older than
// the frequent window.
func (c *cache[V]) pruneFrequentLocked(now int64) {
	window := int64(c.opt.FrequentWindow)
	for k := range c.frequent {
		if e, ok := c.m[k]; !ok || now-e.accessed > window {
			delete(c.frequent, k)
		}
	}
}

// removeLocked unlinks e and purges it from the map, the protection sets and
// the byte counter.
func (c *cache[V]) removeLocked(e *entry[V]) {
	c.unlink(e)
	delete(c.m, e.key)
	delete(c.high, e.key)
	delete(c.frequent, e.key)
	c.bytes -= e.size
	if c.bytes < 0 {
		c.bytes = 0
	}
}

// resetLocked drops every entry and membership; counters are left alone.
func (c *cache[V]) resetLocked() {
	c.m = make(map[string]*entry[V], c.opt.Capacity)
	c.high = make(map[string]struct{})
	c.frequent = make(map[string]struct{})
	c.head, c.tail = nil, nil
	c.bytes = 0
}

// pushFront inserts e at MRU in O(1).
func (c *cache[V]) pushFront(e *entry[V]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
	c.bytes += e.size
}

// moveToFront promotes e to MRU in O(1).
func (c *cache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	// detach
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.tail == e {
		c.tail = e.prev
	}
	// insert at head
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

// unlink detaches e from the list in O(1).
func (c *cache[V]) unlink(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.head == e {
		c.head = e.next
	}
	if c.tail == e {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

// -------------------- policy view --------------------

// storeView adapts the locked cache to policy.View for a single eviction pass.
type storeView[V any] struct {
	c   *cache[V]
	now int64
}

func (v storeView[V]) Len() int      { return len(v.c.m) }
func (v storeView[V]) Capacity() int { return v.c.opt.Capacity }
func (v storeView[V]) Now() int64    { return v.now }

func (v storeView[V]) Each(fn func(policy.Candidate) bool) {
	for e := v.c.tail; e != nil; e = e.prev {
		if !fn(policy.Candidate{
			Key:          e.key,
			Priority:     e.priority,
			AccessCount:  e.hits,
			CreatedAt:    e.created,
			LastAccessAt: e.accessed,
			Size:         e.size,
		}) {
			return
		}
	}
}

func (v storeView[V]) HighPriority(key string) bool {
	_, ok := v.c.high[key]
	return ok
}

func (v storeView[V]) Frequent(key string) bool {
	_, ok := v.c.frequent[key]
	return ok
}

func (v storeView[V]) UnderPressure() bool {
	return float64(len(v.c.m)) >= v.c.opt.PressureRatio*float64(v.c.opt.Capacity)
}
