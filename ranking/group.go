package ranking

import (
	"sort"

	"github.com/IvanBrykalov/artifactcache/artifact"
)

// relativeSizeWeight scales a record's size as a fraction of its group's largest.
const relativeSizeWeight = 20

type typeScorer func(artifact.Metadata) float64

var typeScorers = map[artifact.Type]typeScorer{
	artifact.Zip:        scoreZip,
	artifact.Markdown:   scoreMarkdown,
	artifact.Word:       scoreWord,
	artifact.PDF:        scorePDF,
	artifact.PowerPoint: scorePowerPoint,
	artifact.Visio:      scoreVisio,
}

// GroupRank partitions the batch by type and ranks each partition
// independently. The batch order is left unchanged.
func (e *Engine) GroupRank(batch []*Ranked) []*Ranked {
	var (
		order  []artifact.Type
		groups = make(map[artifact.Type][]*Ranked)
	)
	for _, r := range batch {
		if _, ok := groups[r.Type]; !ok {
			order = append(order, r.Type)
		}
		groups[r.Type] = append(groups[r.Type], r)
	}

	for _, t := range order {
		members := groups[t]
		var maxSize int64
		for _, r := range members {
			maxSize = max(maxSize, r.Size)
		}
		scorer := typeScorers[t]
		for _, r := range members {
			score := 0.0
			if scorer != nil {
				score = scorer(r.Metadata)
			}
			if maxSize > 0 {
				score += float64(r.Size) / float64(maxSize) * relativeSizeWeight
			}
			r.Group = round2(score)
			r.mark(DimensionGroup)
		}

		sorted := append([]*Ranked(nil), members...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Group > sorted[j].Group })
		for i, r := range sorted {
			r.GroupPosition = i + 1
			r.GroupSize = len(sorted)
		}
	}
	return batch
}

func points(cond bool, n float64) float64 {
	if cond {
		return n
	}
	return 0
}

func scoreZip(md artifact.Metadata) float64 {
	return points(md.Bool("has_code"), 30) +
		points(md.Bool("has_docs"), 20) +
		points(md.Float("compression_ratio") > 50, 10)
}

func scoreMarkdown(md artifact.Metadata) float64 {
	return points(md.Float("structure_score") > 50, 25) +
		points(md.Len("headings") > 3, 15) +
		points(md.Len("links") > 5, 10)
}

func scoreWord(md artifact.Metadata) float64 {
	return points(md.Float("word_count") > 1000, 20) +
		points(md.Len("tables") > 0, 15) +
		points(md.Nested("properties").String("author") != "", 10)
}

func scorePDF(md artifact.Metadata) float64 {
	return points(md.Float("page_count") > 10, 20) +
		points(md.Float("images_count") > 0, 10) +
		points(md.Float("links_count") > 0, 10)
}

func scorePowerPoint(md artifact.Metadata) float64 {
	return points(md.Float("slide_count") > 10, 20) +
		points(md.Float("total_images") > 5, 15) +
		points(md.Float("total_text_shapes") > 20, 10)
}

func scoreVisio(md artifact.Metadata) float64 {
	return points(md.Float("total_shapes") > 20, 25) +
		points(md.Float("total_connections") > 10, 20) +
		points(md.Float("complexity_score") > 2, 15)
}
