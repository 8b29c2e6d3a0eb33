package ranking

import (
	"math"

	"github.com/IvanBrykalov/artifactcache/artifact"
)

// errorPenalty scales the self score of records the parser flagged with an
// error, keeping them orderable among themselves.
const errorPenalty = 0.1

// SelfRank scores each record's intrinsic quality and assigns a category.
func (e *Engine) SelfRank(batch []*Ranked) []*Ranked {
	for _, r := range batch {
		r.Self = selfScore(r.Record)
		r.SelfCategory = SelfCategory(r.Self)
		r.mark(DimensionSelf)
	}
	return batch
}

func selfScore(rec artifact.Record) float64 {
	md := rec.Metadata
	score := 0.0
	if rec.Size > 0 {
		score += math.Min(math.Log(float64(rec.Size))/10, 20)
	}
	score += math.Min(md.Float("word_count")/100, 30)
	score += md.Float("structure_score") * 0.3
	score += md.Float("complexity_score") * 10
	if md.Has("error") {
		score *= errorPenalty
	}
	return round2(score)
}

// SelfCategory buckets a self score.
func SelfCategory(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Average"
	case score >= 20:
		return "Poor"
	default:
		return "Very Poor"
	}
}
