package cache

// entry is an intrusive doubly linked list element owned by the cache.
// It stores the key/value alongside list links and the bookkeeping used by
// the eviction policy and TTL/byte accounting.
type entry[V any] struct {
	key string
	val V

	// Intrusive list links: head is MRU, tail is LRU.
	prev *entry[V]
	next *entry[V]

	priority int

	// UnixNano readings of the cache clock.
	created  int64
	accessed int64

	// Successful reads since insertion.
	hits uint64

	// Estimated bytes; fixed for the life of the entry.
	size int64
}
