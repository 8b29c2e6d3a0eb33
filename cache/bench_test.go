package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/artifactcache/policy/lru"
)

// benchmarkMix exercises a read/write mix against a warm cache.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
// Writes beyond capacity run the eviction scan, which is O(n) under the
// priority policy.
func benchmarkMix(b *testing.B, opt Options[string], readsPct int) {
	c, err := New[string](opt)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = c.Close() })

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < opt.Capacity/2; i++ {
		c.Put("k:"+strconv.Itoa(i), "v", i%100)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 12) - 1

	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				c.Put(k, "v", r.Intn(100))
			}
			i++
		}
	})
}

func BenchmarkCache_Priority_90r10w(b *testing.B) {
	benchmarkMix(b, Options[string]{Capacity: 1_000}, 90)
}

func BenchmarkCache_Priority_50r50w(b *testing.B) {
	benchmarkMix(b, Options[string]{Capacity: 1_000}, 50)
}

func BenchmarkCache_LRU_50r50w(b *testing.B) {
	benchmarkMix(b, Options[string]{Capacity: 1_000, Policy: lru.New()}, 50)
}
