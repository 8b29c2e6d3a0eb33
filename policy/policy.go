package policy

// Candidate is a read-only snapshot of one resident entry as seen by a policy.
// Timestamps are UnixNano values taken from the cache clock.
type Candidate struct {
	Key          string
	Priority     int
	AccessCount  uint64
	CreatedAt    int64
	LastAccessAt int64
	Size         int64
}

// View exposes the cache state a policy needs to choose a victim.
// It is only valid for the duration of a single Victim call.
//
// Concurrency: views are handed out under the cache lock.
type View interface {
	// Len returns the number of resident entries.
	Len() int
	// Capacity returns the entry-count limit.
	Capacity() int
	// Now returns the cache clock reading for this eviction pass.
	Now() int64
	// Each walks entries from least to most recently used until fn returns false.
	Each(fn func(Candidate) bool)
	// HighPriority reports membership in the high-priority set.
	HighPriority(key string) bool
	// Frequent reports membership in the (fresh) frequent set.
	Frequent(key string) bool
	// UnderPressure reports whether the entry count has reached the pressure
	// threshold at which high-priority protection is lifted.
	UnderPressure() bool
}

// Decision names the entry a policy wants evicted.
// Fallback is set when no ordinary candidate existed and the policy fell back
// to the least recently used entry.
type Decision struct {
	Key      string
	Fallback bool
}

// Policy selects eviction victims. Victim returns false only when the view is
// empty; the cache then falls back to its LRU tail on its own.
type Policy interface {
	Victim(View) (Decision, bool)
}

// Func adapts a plain function to Policy.
type Func func(View) (Decision, bool)

// Victim implements Policy.
func (f Func) Victim(v View) (Decision, bool) { return f(v) }

// Oldest returns the least recently used entry of v as a fallback decision.
func Oldest(v View) (Decision, bool) {
	var (
		d  Decision
		ok bool
	)
	v.Each(func(c Candidate) bool {
		d, ok = Decision{Key: c.Key, Fallback: true}, true
		return false
	})
	return d, ok
}
