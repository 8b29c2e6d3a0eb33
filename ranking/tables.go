package ranking

import "github.com/IvanBrykalov/artifactcache/artifact"

// Per-dimension lookup tables keyed by artifact type. Types missing from a
// table fall back to its Unknown entry.

var typeImportance = map[artifact.Type]float64{
	artifact.Zip:        100,
	artifact.Markdown:   80,
	artifact.Visio:      70,
	artifact.Word:       60,
	artifact.PDF:        50,
	artifact.PowerPoint: 40,
	artifact.Unknown:    10,
}

var pipelineBase = map[artifact.Type]float64{
	artifact.Zip:        90,
	artifact.Markdown:   70,
	artifact.Word:       60,
	artifact.Visio:      50,
	artifact.PDF:        40,
	artifact.PowerPoint: 30,
	artifact.Unknown:    5,
}

var complexityBase = map[artifact.Type]float64{
	artifact.Zip:        0.9,
	artifact.Visio:      0.8,
	artifact.PowerPoint: 0.7,
	artifact.Word:       0.6,
	artifact.PDF:        0.5,
	artifact.Markdown:   0.3,
	artifact.Unknown:    0.1,
}

func lookup(table map[artifact.Type]float64, t artifact.Type) float64 {
	if v, ok := table[t]; ok {
		return v
	}
	return table[artifact.Unknown]
}
