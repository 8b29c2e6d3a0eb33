// Package priority implements the priority-aware eviction policy: protected
// entries are skipped, the rest are scored, and the lowest score is evicted.
package priority

import (
	"time"

	"github.com/IvanBrykalov/artifactcache/policy"
)

// AccessWeight is the score bonus per recorded access.
const AccessWeight = 10

// IdleWeight multiplies the hours-since-last-access penalty.
const IdleWeight = 2

type priorityPolicy struct{}

// New returns the priority policy.
func New() policy.Policy { return priorityPolicy{} }

// Score is the eviction score of c at now; lower means more evictable.
//
//	priority + accesses*10 − ageHours − 2*idleHours
func Score(c policy.Candidate, now int64) float64 {
	age := hours(now - c.CreatedAt)
	idle := hours(now - c.LastAccessAt)
	return float64(c.Priority) + float64(c.AccessCount)*AccessWeight - age - IdleWeight*idle
}

// Victim implements policy.Policy.
//
// High-priority entries are candidates only under pressure; fresh frequent
// entries are never candidates. Among candidates the minimum score wins, ties
// go to the earliest created entry, then to the least recently used one
// (the walk order). With no candidates the LRU entry is chosen regardless of
// protection.
func (priorityPolicy) Victim(v policy.View) (policy.Decision, bool) {
	if v.Len() == 0 {
		return policy.Decision{}, false
	}
	now := v.Now()
	pressure := v.UnderPressure()

	var (
		best      policy.Candidate
		bestScore float64
		found     bool
	)
	v.Each(func(c policy.Candidate) bool {
		if !pressure && v.HighPriority(c.Key) {
			return true
		}
		if v.Frequent(c.Key) {
			return true
		}
		s := Score(c, now)
		if !found || s < bestScore || (s == bestScore && c.CreatedAt < best.CreatedAt) {
			best, bestScore, found = c, s, true
		}
		return true
	})
	if !found {
		return policy.Oldest(v)
	}
	return policy.Decision{Key: best.Key}, true
}

func hours(d int64) float64 {
	if d < 0 {
		return 0
	}
	return time.Duration(d).Hours()
}
