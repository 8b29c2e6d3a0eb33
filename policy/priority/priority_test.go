package priority

import (
	"math"
	"testing"
	"time"

	"github.com/IvanBrykalov/artifactcache/policy"
)

// --- test doubles ---

type fakeView struct {
	now      int64
	capacity int
	pressure bool
	entries  []policy.Candidate // LRU first
	high     map[string]bool
	frequent map[string]bool
}

func (v *fakeView) Len() int                   { return len(v.entries) }
func (v *fakeView) Capacity() int              { return v.capacity }
func (v *fakeView) Now() int64                 { return v.now }
func (v *fakeView) UnderPressure() bool        { return v.pressure }
func (v *fakeView) HighPriority(k string) bool { return v.high[k] }
func (v *fakeView) Frequent(k string) bool     { return v.frequent[k] }
func (v *fakeView) Each(fn func(policy.Candidate) bool) {
	for _, c := range v.entries {
		if !fn(c) {
			return
		}
	}
}

const hour = int64(time.Hour)

// --- tests ---

func TestScore(t *testing.T) {
	t.Parallel()

	c := policy.Candidate{Priority: 40, AccessCount: 3, CreatedAt: 0, LastAccessAt: 2 * hour}
	// 40 + 30 - 5h age - 2*3h idle = 59
	got := Score(c, 5*hour)
	if math.Abs(got-59) > 1e-9 {
		t.Fatalf("Score = %v, want 59", got)
	}

	// Clock skew must not produce a bonus.
	if s := Score(policy.Candidate{Priority: 1, CreatedAt: 10, LastAccessAt: 10}, 0); s != 1 {
		t.Fatalf("negative ages must clamp to zero, got %v", s)
	}
}

// The lowest score is evicted.
func TestVictim_MinimumScore(t *testing.T) {
	t.Parallel()

	v := &fakeView{
		now:      hour,
		capacity: 10,
		entries: []policy.Candidate{
			{Key: "a", Priority: 30, CreatedAt: 0, LastAccessAt: 0},
			{Key: "b", Priority: 10, CreatedAt: 0, LastAccessAt: 0},
			{Key: "c", Priority: 10, AccessCount: 1, CreatedAt: 0, LastAccessAt: 0},
		},
	}
	d, ok := New().Victim(v)
	if !ok || d.Key != "b" || d.Fallback {
		t.Fatalf("victim = %+v ok=%v, want b", d, ok)
	}
}

// Ties are broken by creation time, then by walk (LRU) order.
func TestVictim_TieBreaks(t *testing.T) {
	t.Parallel()

	v := &fakeView{
		capacity: 10,
		entries: []policy.Candidate{
			{Key: "lru-but-newer", Priority: 10, CreatedAt: 5, LastAccessAt: 5},
			{Key: "older", Priority: 10, CreatedAt: 1, LastAccessAt: 5},
		},
		now: 5,
	}
	// Age differs by nanoseconds, so scores are equal only to float precision;
	// "older" has the larger age penalty and the earlier creation time.
	if d, _ := New().Victim(v); d.Key != "older" {
		t.Fatalf("victim = %q, want older", d.Key)
	}

	same := &fakeView{
		capacity: 10,
		entries: []policy.Candidate{
			{Key: "first", Priority: 10},
			{Key: "second", Priority: 10},
		},
	}
	if d, _ := New().Victim(same); d.Key != "first" {
		t.Fatalf("victim = %q, want first (LRU order)", d.Key)
	}
}

// High-priority entries are skipped unless the cache is under pressure.
func TestVictim_HighPriorityProtection(t *testing.T) {
	t.Parallel()

	entries := []policy.Candidate{
		{Key: "vip", Priority: 60},
		{Key: "plain", Priority: 70},
	}
	v := &fakeView{capacity: 10, entries: entries, high: map[string]bool{"vip": true}}
	if d, _ := New().Victim(v); d.Key != "plain" {
		t.Fatalf("without pressure victim = %q, want plain", d.Key)
	}

	v.pressure = true
	if d, _ := New().Victim(v); d.Key != "vip" {
		t.Fatalf("under pressure victim = %q, want vip (lower score)", d.Key)
	}
}

// Frequent entries are skipped even under pressure.
func TestVictim_FrequentAlwaysProtected(t *testing.T) {
	t.Parallel()

	v := &fakeView{
		capacity: 10,
		pressure: true,
		entries: []policy.Candidate{
			{Key: "hot", Priority: 0},
			{Key: "cold", Priority: 90},
		},
		frequent: map[string]bool{"hot": true},
	}
	if d, _ := New().Victim(v); d.Key != "cold" {
		t.Fatalf("victim = %q, want cold", d.Key)
	}
}

// With every entry protected the LRU entry is evicted as a fallback.
func TestVictim_FallbackToOldest(t *testing.T) {
	t.Parallel()

	v := &fakeView{
		capacity: 10,
		entries: []policy.Candidate{
			{Key: "x", Priority: 80},
			{Key: "y", Priority: 80},
		},
		high:     map[string]bool{"x": true},
		frequent: map[string]bool{"y": true},
	}
	d, ok := New().Victim(v)
	if !ok || d.Key != "x" || !d.Fallback {
		t.Fatalf("victim = %+v ok=%v, want fallback x", d, ok)
	}

	if _, ok := New().Victim(&fakeView{capacity: 1}); ok {
		t.Fatal("empty view must not produce a victim")
	}
}
