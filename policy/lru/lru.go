// Package lru implements a plain LRU eviction policy that ignores priorities
// and protection sets. It exists as a baseline for comparing hit rates.
package lru

import "github.com/IvanBrykalov/artifactcache/policy"

type lruPolicy struct{}

// New returns a Policy that always evicts the least recently used entry.
func New() policy.Policy { return lruPolicy{} }

// Victim implements policy.Policy.
func (lruPolicy) Victim(v policy.View) (policy.Decision, bool) {
	d, ok := policy.Oldest(v)
	d.Fallback = false
	return d, ok
}
