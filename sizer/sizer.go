// Package sizer provides size estimators used by the cache for byte-budget
// accounting. Estimates need not be exact, but for a given value they must be
// deterministic and never negative.
package sizer

import (
	"encoding/json"
	"fmt"
)

// Func estimates the resident size of v in bytes.
type Func[V any] func(v V) int64

// Bytes sizes a byte slice by its length.
func Bytes(v []byte) int64 { return int64(len(v)) }

// String sizes a string by its length.
func String(v string) int64 { return int64(len(v)) }

// Sizer is implemented by values that know their own footprint.
type Sizer interface {
	EstimateSize() int64
}

// JSON is the general-purpose fallback: Sizer values report their own size,
// []byte and string use their length, everything else is measured by its JSON
// encoding (map keys are sorted by encoding/json, so the result is stable).
// Values that cannot be encoded fall back to their fmt representation.
func JSON[V any](v V) int64 {
	switch x := any(v).(type) {
	case Sizer:
		return clamp(x.EstimateSize())
	case []byte:
		return int64(len(x))
	case string:
		return int64(len(x))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return int64(len(fmt.Sprint(v)))
	}
	return int64(len(b))
}

// Fixed returns an estimator that reports n for every value.
func Fixed[V any](n int64) Func[V] {
	n = clamp(n)
	return func(V) int64 { return n }
}

// Safe wraps fn so that negative results are reported as zero.
func Safe[V any](fn Func[V]) Func[V] {
	return func(v V) int64 { return clamp(fn(v)) }
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
