package cache

import (
	"strings"
	"testing"

	"github.com/IvanBrykalov/artifactcache/sizer"
)

// Fuzz Put/Get/Remove under arbitrary keys, values and priorities.
// Guards against panics and checks that both limits and the byte counter hold.
func FuzzCache_PutGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "", 0)
	f.Add("a", "1", 10)
	f.Add("b", "2", 90)
	f.Add("αβγ", "δ", -5)
	f.Add("emoji🙂", "🙂🙂", 51)
	f.Add("long", strings.Repeat("x", 1024), 100)

	f.Fuzz(func(t *testing.T, k, v string, prio int) {
		// Cap lengths to keep memory bounded during fuzzing.
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		const maxBytes = 2048
		c, err := New[string](Options[string]{Capacity: 4, MaxBytes: maxBytes, Size: sizer.String})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = c.Close() })

		// Background entries to force evictions.
		for _, fill := range []string{"f1", "f2", "f3", "f4"} {
			c.Put(fill, strings.Repeat("y", 400), prio/2)
		}

		ok := c.Put(k, v, prio)
		if ok != (len(v) <= maxBytes) {
			t.Fatalf("Put(%d bytes) = %v", len(v), ok)
		}
		if ok {
			got, hit := c.Get(k)
			if !hit || got != v {
				t.Fatalf("after Put/Get: want %q, got %q ok=%v", v, got, hit)
			}
		}

		s := c.Stats()
		if s.Entries > 4 || s.Bytes > maxBytes {
			t.Fatalf("limits violated: %+v", s)
		}
		var sum int64
		for _, e := range c.Entries() {
			sum += e.Size
		}
		if sum != s.Bytes {
			t.Fatalf("byte counter %d, entries sum %d", s.Bytes, sum)
		}

		if ok {
			if !c.Remove(k) {
				t.Fatalf("Remove must return true")
			}
			if _, hit := c.Get(k); hit {
				t.Fatalf("key must be absent after Remove")
			}
		}
	})
}
