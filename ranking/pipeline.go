package ranking

import (
	"strings"

	"github.com/IvanBrykalov/artifactcache/artifact"
)

// MaxPipelineScore is the highest pipeline score (a Zip with code and docs).
const MaxPipelineScore = 120

// PipelineRank scores each record's importance to downstream processing and
// labels its role.
func (e *Engine) PipelineRank(batch []*Ranked) []*Ranked {
	for _, r := range batch {
		r.Pipeline = pipelineScore(r.Record)
		r.PipelineRole = PipelineRole(r.Record)
		r.mark(DimensionPipeline)
	}
	return batch
}

func pipelineScore(rec artifact.Record) float64 {
	score := lookup(pipelineBase, rec.Type)
	switch rec.Type {
	case artifact.Zip:
		score += points(rec.Metadata.Bool("has_code"), 20)
		score += points(rec.Metadata.Bool("has_docs"), 10)
	case artifact.Markdown:
		score += points(strings.Contains(strings.ToLower(rec.FileName()), "readme"), 15)
	}
	return round2(score)
}

// PipelineRole returns a descriptive label for rec's pipeline role.
func PipelineRole(rec artifact.Record) string {
	md := rec.Metadata
	name := strings.ToLower(rec.FileName())

	switch rec.Type {
	case artifact.Zip:
		switch {
		case md.Bool("has_code"):
			return "Code Archive"
		case md.Bool("has_docs"):
			return "Documentation Archive"
		default:
			return "Data Archive"
		}
	case artifact.Markdown:
		switch {
		case strings.Contains(name, "readme"):
			return "Project Documentation"
		case containsAny(name, "api", "guide", "tutorial"):
			return "Technical Documentation"
		default:
			return "General Documentation"
		}
	case artifact.Word:
		return "Formal " + orDefault(md.String("document_type"), "General Document")
	case artifact.Visio:
		return "Process " + orDefault(md.String("diagram_type"), "General Diagram")
	case artifact.PDF:
		return "Reference " + orDefault(md.String("document_type"), "General PDF")
	case artifact.PowerPoint:
		return "Visual " + orDefault(md.String("presentation_type"), "General Presentation")
	default:
		return "Unknown Role"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
