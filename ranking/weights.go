package ranking

import (
	"fmt"
	"math"
)

// Weights are the total-rank coefficients of the six sub-scores.
// They must be non-negative and sum to 1.
type Weights struct {
	Size       float64 `json:"size" koanf:"size"`
	Recency    float64 `json:"recency" koanf:"recency"`
	Richness   float64 `json:"richness" koanf:"richness"`
	Type       float64 `json:"type" koanf:"type"`
	Complexity float64 `json:"complexity" koanf:"complexity"`
	Pipeline   float64 `json:"pipeline" koanf:"pipeline"`
}

// DefaultWeights returns the stock total-rank weights.
func DefaultWeights() Weights {
	return Weights{
		Size:       0.10,
		Recency:    0.15,
		Richness:   0.25,
		Type:       0.20,
		Complexity: 0.15,
		Pipeline:   0.15,
	}
}

const weightTolerance = 1e-6

// Validate reports ErrInvalidWeights when a weight is negative or the sum is not 1.
func (w Weights) Validate() error {
	parts := []float64{w.Size, w.Recency, w.Richness, w.Type, w.Complexity, w.Pipeline}
	sum := 0.0
	for _, p := range parts {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("%w: negative or NaN weight in %+v", ErrInvalidWeights, w)
		}
		sum += p
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, want 1", ErrInvalidWeights, sum)
	}
	return nil
}
