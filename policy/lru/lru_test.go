package lru

import (
	"testing"

	"github.com/IvanBrykalov/artifactcache/policy"
)

// --- test doubles ---

type fakeView struct {
	entries  []policy.Candidate // LRU first
	high     map[string]bool
	frequent map[string]bool
	walked   int
}

func (v *fakeView) Len() int            { return len(v.entries) }
func (v *fakeView) Capacity() int       { return 10 }
func (v *fakeView) Now() int64          { return 0 }
func (v *fakeView) UnderPressure() bool { return false }
func (v *fakeView) HighPriority(k string) bool {
	return v.high[k]
}
func (v *fakeView) Frequent(k string) bool { return v.frequent[k] }
func (v *fakeView) Each(fn func(policy.Candidate) bool) {
	for _, c := range v.entries {
		v.walked++
		if !fn(c) {
			return
		}
	}
}

// --- tests ---

// The LRU baseline ignores protection and picks the head of the walk.
func TestLRU_PicksLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	v := &fakeView{
		entries: []policy.Candidate{
			{Key: "old", Priority: 99},
			{Key: "mid"},
			{Key: "new"},
		},
		high:     map[string]bool{"old": true},
		frequent: map[string]bool{"old": true},
	}
	d, ok := New().Victim(v)
	if !ok {
		t.Fatal("expected a victim")
	}
	if d.Key != "old" {
		t.Fatalf("victim = %q, want old", d.Key)
	}
	if d.Fallback {
		t.Fatal("LRU decisions are ordinary, not fallbacks")
	}
	if v.walked != 1 {
		t.Fatalf("LRU must stop after the first entry, walked %d", v.walked)
	}
}

// An empty view yields no decision.
func TestLRU_Empty(t *testing.T) {
	t.Parallel()

	if _, ok := New().Victim(&fakeView{}); ok {
		t.Fatal("empty view must not produce a victim")
	}
}
