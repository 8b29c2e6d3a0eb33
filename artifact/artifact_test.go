package artifact

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, typ := range Types {
		assert.Equal(t, typ, ParseType(typ.String()))
	}
	assert.Equal(t, Zip, ParseType(" zip "))
	assert.Equal(t, Unknown, ParseType("spreadsheet"))
	assert.Equal(t, "UNKNOWN", Type(42).String())
}

func TestTypeForPath(t *testing.T) {
	t.Parallel()

	cases := map[string]Type{
		"/tmp/a.ZIP":       Zip,
		"docs/README.md":   Markdown,
		"plan.vsdx":        Visio,
		"report.docx":      Word,
		"paper.pdf":        PDF,
		"deck.pptx":        PowerPoint,
		"notes.txt":        Unknown,
		"no-extension-here": Unknown,
	}
	for path, want := range cases {
		assert.Equal(t, want, TypeForPath(path), path)
	}
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := `{"file_path":"/a/README.md","artifact_type":"markdown","file_size":120,
		"metadata":{"word_count":300,"headings":["a","b"],"has_code":true}}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	assert.Equal(t, Markdown, r.Type)
	assert.Equal(t, "README.md", r.FileName())
	assert.EqualValues(t, 300, r.Metadata.Int("word_count"))
	assert.Equal(t, 2, r.Metadata.Len("headings"))
	assert.True(t, r.Metadata.Bool("has_code"))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"artifact_type":"MARKDOWN"`)
}

func TestMetadata_TotalAccessors(t *testing.T) {
	t.Parallel()

	var nilMeta Metadata
	assert.Zero(t, nilMeta.Float("x"))
	assert.Zero(t, nilMeta.Len("x"))
	assert.False(t, nilMeta.Bool("x"))
	assert.Empty(t, nilMeta.String("x"))
	assert.Nil(t, nilMeta.Nested("x"))

	m := Metadata{
		"count":      int32(7),
		"ratio":      "not-a-number",
		"flag":       "TRUE",
		"numflag":    1,
		"props":      map[string]any{"author": "kim"},
		"tables":     12,
		"title":      "x",
		"jsonnumber": json.Number("2.5"),
	}
	assert.EqualValues(t, 7, m.Int("count"))
	assert.Zero(t, m.Float("ratio"))
	assert.True(t, m.Bool("flag"))
	assert.True(t, m.Bool("numflag"))
	assert.Equal(t, "kim", m.Nested("props").String("author"))
	assert.Equal(t, 12, m.Len("tables"))
	assert.Zero(t, m.Len("title"))
	assert.InDelta(t, 2.5, m.Float("jsonnumber"), 1e-9)
}

func TestMetadata_NonFiniteAndHugeNumbers(t *testing.T) {
	t.Parallel()

	m := Metadata{
		"nan":     math.NaN(),
		"inf":     math.Inf(1),
		"neginf":  float32(math.Inf(-1)),
		"huge":    1e300,
		"neg":     -4.0,
		"numflag": math.NaN(),
	}
	assert.Zero(t, m.Float("nan"))
	assert.Zero(t, m.Float("inf"))
	assert.Zero(t, m.Float("neginf"))
	assert.Zero(t, m.Len("nan"))
	assert.False(t, m.Bool("numflag"))

	assert.Equal(t, math.MaxInt, m.Len("huge"))
	assert.Equal(t, int64(math.MaxInt64), m.Int("huge"))
	assert.Zero(t, m.Len("neg"), "counts are never negative")
	assert.EqualValues(t, -4, m.Int("neg"))
}

func TestRecord_EstimateSizeDeterministic(t *testing.T) {
	t.Parallel()

	r := Record{Path: "/x/y.zip", Type: Zip, Metadata: Metadata{"b": 1, "a": []any{"x"}}}
	first := r.EstimateSize()
	assert.Positive(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.EstimateSize())
	}

	bigger := r
	bigger.Metadata = Metadata{"b": 1, "a": []any{"x", "y", "z"}}
	assert.Greater(t, bigger.EstimateSize(), first)
}
