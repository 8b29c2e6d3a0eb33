package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/IvanBrykalov/artifactcache/artifact"
)

const recencyHorizonDays = 365

// TotalRank computes the weighted composite score, sorts the batch by it
// (descending, stable) and records positions.
func (e *Engine) TotalRank(batch []*Ranked) []*Ranked {
	if len(batch) == 0 {
		return batch
	}
	now := e.now()

	var maxSize int64
	for _, r := range batch {
		maxSize = max(maxSize, r.Size)
	}

	w := e.weights
	for _, r := range batch {
		score := w.Size*sizeScore(r.Size, maxSize) +
			w.Recency*recencyScore(r.ModTime, now) +
			w.Richness*richnessScore(r.Metadata) +
			w.Type*lookup(typeImportance, r.Type)/100 +
			w.Complexity*complexityScore(r.Record) +
			w.Pipeline*math.Min(pipelineScore(r.Record)/MaxPipelineScore, 1)
		if math.IsNaN(score) {
			score = 0
		}
		r.Total = min(max(round2(score*100), 0), 100)
		r.mark(DimensionTotal)
	}

	sort.SliceStable(batch, func(i, j int) bool { return batch[i].Total > batch[j].Total })
	for i, r := range batch {
		r.TotalPosition = i + 1
	}
	return batch
}

// sizeScore log-normalises size against the batch maximum.
func sizeScore(size, maxSize int64) float64 {
	if size <= 1 || maxSize <= 1 {
		return 0
	}
	return math.Log(float64(size)) / math.Log(float64(maxSize))
}

// recencyScore decays linearly to zero over a year. A zero ModTime counts as a
// year old.
func recencyScore(mod, now time.Time) float64 {
	days := float64(recencyHorizonDays)
	if !mod.IsZero() {
		days = now.Sub(mod).Hours() / 24
	}
	return min(max(1-days/recencyHorizonDays, 0), 1)
}

func richnessScore(md artifact.Metadata) float64 {
	r := math.Min(md.Float("word_count")/1000, 0.5) +
		math.Min(md.Float("character_count")/10000, 0.3) +
		math.Min(float64(md.Len("headings"))/10, 0.2) +
		math.Min(float64(md.Len("links"))/20, 0.2) +
		math.Min(float64(md.Len("images"))/10, 0.1) +
		math.Min(float64(md.Len("python_files"))/10, 0.3) +
		math.Min(float64(md.Len("tables"))/5, 0.2)
	return math.Min(r, 1)
}

func complexityScore(rec artifact.Record) float64 {
	c := lookup(complexityBase, rec.Type) +
		math.Min(rec.Metadata.Float("total_files")/100, 0.3) +
		math.Min(rec.Metadata.Float("page_count")/50, 0.2)
	return math.Min(c, 1)
}
