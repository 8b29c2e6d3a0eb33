package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IvanBrykalov/artifactcache/policy"
	"github.com/IvanBrykalov/artifactcache/policy/priority"
	"github.com/IvanBrykalov/artifactcache/sizer"
)

// Defaults applied by New to zero-valued Options fields.
const (
	DefaultMaxBytes              int64 = 100 << 20
	DefaultHighPriorityThreshold       = 50
	DefaultPressureRatio               = 0.9
	DefaultFrequentHits          uint64 = 5
	DefaultFrequentWindow              = 30 * time.Minute
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy: chosen by the eviction policy to make room.
	EvictPolicy EvictReason = iota
	// EvictFallback: every entry was protected; the LRU entry was removed.
	EvictFallback
	// EvictTTL: expired (lazily on Get, or by CleanupExpired).
	EvictTTL
)

func (r EvictReason) String() string {
	switch r {
	case EvictFallback:
		return "fallback"
	case EvictTTL:
		return "ttl"
	default:
		return "policy"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, bytes int64)
	Protected(highPriority, frequent int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Loader recomputes a value on a miss and reports the priority to cache it with.
type Loader[V any] func(ctx context.Context, key string) (V, int, error)

// Options configures the cache. Zero values are safe for every field except
// Capacity; New applies these defaults:
//   - MaxBytes <= 0              => DefaultMaxBytes
//   - HighPriorityThreshold == 0 => DefaultHighPriorityThreshold
//   - PressureRatio == 0         => DefaultPressureRatio
//   - FrequentHits == 0          => DefaultFrequentHits
//   - FrequentWindow == 0        => DefaultFrequentWindow
//   - nil Size                   => sizer.JSON
//   - nil Policy                 => priority policy
//   - nil Metrics                => NoopMetrics
//   - nil Logger                 => discard
type Options[V any] struct {
	// Capacity is the entry count limit. Required.
	Capacity int

	// MaxBytes is the byte budget, accounted with Size.
	MaxBytes int64

	// TTL is the maximum entry age. 0 disables expiry.
	TTL time.Duration

	// Entries with a priority strictly above HighPriorityThreshold are
	// protected from eviction until the entry count reaches
	// PressureRatio*Capacity. The threshold must not be negative; 0 selects
	// DefaultHighPriorityThreshold, so the lowest explicit threshold is 1.
	HighPriorityThreshold int
	PressureRatio         float64

	// Entries read more than FrequentHits times are protected while their
	// last read is no older than FrequentWindow.
	FrequentHits   uint64
	FrequentWindow time.Duration

	// Size estimates the byte footprint of a value once, at insertion.
	Size sizer.Func[V]

	// Policy picks eviction victims.
	Policy policy.Policy

	// Loader fetches a value on a miss. Used by GetOrLoad.
	Loader Loader[V]

	// CleanupInterval > 0 starts a background CleanupExpired sweep,
	// stopped by Close.
	CleanupInterval time.Duration

	// Observability
	// OnEvict is called for evictions and expirations under the cache lock;
	// keep callbacks lightweight and never call back into the cache.
	OnEvict func(key string, v V, reason EvictReason)
	Metrics Metrics
	Logger  *slog.Logger

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}

// withDefaults validates o and fills in defaults.
func (o Options[V]) withDefaults() (Options[V], error) {
	if o.Capacity <= 0 {
		return o, fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidOptions, o.Capacity)
	}
	if o.TTL < 0 {
		return o, fmt.Errorf("%w: ttl must not be negative, got %v", ErrInvalidOptions, o.TTL)
	}
	if o.HighPriorityThreshold < 0 {
		return o, fmt.Errorf("%w: high priority threshold must not be negative, got %d", ErrInvalidOptions, o.HighPriorityThreshold)
	}
	if o.PressureRatio < 0 || o.PressureRatio > 1 {
		return o, fmt.Errorf("%w: pressure ratio must be in (0,1], got %v", ErrInvalidOptions, o.PressureRatio)
	}
	if o.FrequentWindow < 0 || o.CleanupInterval < 0 {
		return o, fmt.Errorf("%w: durations must not be negative", ErrInvalidOptions)
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.HighPriorityThreshold == 0 {
		o.HighPriorityThreshold = DefaultHighPriorityThreshold
	}
	if o.PressureRatio == 0 {
		o.PressureRatio = DefaultPressureRatio
	}
	if o.FrequentHits == 0 {
		o.FrequentHits = DefaultFrequentHits
	}
	if o.FrequentWindow == 0 {
		o.FrequentWindow = DefaultFrequentWindow
	}
	if o.Size == nil {
		o.Size = sizer.JSON[V]
	}
	o.Size = sizer.Safe(o.Size)
	if o.Policy == nil {
		o.Policy = priority.New()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}
