package artifactcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/artifactcache/artifact"
	"github.com/IvanBrykalov/artifactcache/cache"
)

type clock struct{ t int64 }

func (c *clock) NowUnixNano() int64 { return c.t }

func newCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	c, err := New(cache.Options[artifact.Record]{Capacity: capacity, Clock: &clock{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPriority(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rec  artifact.Record
		want int
	}{
		{"zip with code and docs", artifact.Record{Path: "/a/src.zip", Type: artifact.Zip,
			Metadata: artifact.Metadata{"has_code": true, "has_docs": true}}, 120},
		{"readme", artifact.Record{Path: "/repo/README.md", Type: artifact.Markdown}, 85},
		{"readme in directory", artifact.Record{Path: "/readme/guide.md", Type: artifact.Markdown}, 85},
		{"word", artifact.Record{Path: "design.docx", Type: artifact.Word}, 60},
		{"visio", artifact.Record{Path: "flow.vsdx", Type: artifact.Visio}, 50},
		{"pdf", artifact.Record{Path: "paper.pdf", Type: artifact.PDF}, 40},
		{"powerpoint", artifact.Record{Path: "deck.pptx", Type: artifact.PowerPoint}, 30},
		{"unknown", artifact.Record{Path: "blob.bin"}, DefaultPriority},
		{"unknown with code", artifact.Record{Path: "x", Metadata: artifact.Metadata{"has_code": 1}}, 30},
		{"false flags", artifact.Record{Path: "x.zip", Type: artifact.Zip,
			Metadata: artifact.Metadata{"has_code": false, "has_docs": "no"}}, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Priority(tc.rec))
		})
	}
}

func TestKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "artifact:/a/b.md", Key("/a/b.md"))
	assert.Equal(t, "artifact:", Key(""))
}

func TestCacheArtifact_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newCache(t, 8)
	rec := artifact.Record{Path: "/repo/README.md", Type: artifact.Markdown, Size: 120}

	require.True(t, c.CacheArtifact(rec))
	got, ok := c.GetArtifact("/repo/README.md")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	infos := c.Cache().Entries()
	require.Len(t, infos, 1)
	assert.Equal(t, "artifact:/repo/README.md", infos[0].Key)
	assert.Equal(t, 85, infos[0].Priority)
	assert.Equal(t, rec.EstimateSize(), infos[0].Size)
	assert.True(t, infos[0].HighPriority)

	assert.True(t, c.RemoveArtifact("/repo/README.md"))
	_, ok = c.GetArtifact("/repo/README.md")
	assert.False(t, ok)
}

// Re-caching a path replaces the record and its priority.
func TestCacheArtifactWithPriority_Replaces(t *testing.T) {
	t.Parallel()

	c := newCache(t, 8)
	rec := artifact.Record{Path: "deck.pptx", Type: artifact.PowerPoint}

	require.True(t, c.CacheArtifact(rec))
	rec.Size = 99
	require.True(t, c.CacheArtifactWithPriority(rec, 77))

	assert.Equal(t, 1, c.Cache().Len())
	got, _ := c.GetArtifact("deck.pptx")
	assert.Equal(t, int64(99), got.Size)
	assert.Equal(t, 77, c.Cache().Entries()[0].Priority)
}

// Low-value artifacts are evicted first when the cache fills up.
func TestCache_EvictsLowPriorityTypes(t *testing.T) {
	t.Parallel()

	c := newCache(t, 2)
	c.CacheArtifact(artifact.Record{Path: "a.zip", Type: artifact.Zip})
	c.CacheArtifact(artifact.Record{Path: "b.pptx", Type: artifact.PowerPoint})
	c.CacheArtifact(artifact.Record{Path: "c.md", Type: artifact.Markdown})

	_, ok := c.GetArtifact("b.pptx")
	assert.False(t, ok)
	_, ok = c.GetArtifact("a.zip")
	assert.True(t, ok)
}

func TestCache_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "artifacts.json")
	src := newCache(t, 8)
	rec := artifact.Record{
		Path:     "/x/report.pdf",
		Type:     artifact.PDF,
		Size:     2048,
		Metadata: artifact.Metadata{"page_count": 12.0, "has_docs": true},
	}
	require.True(t, src.CacheArtifact(rec))
	require.NoError(t, src.Cache().SaveSnapshot(path))

	dst := newCache(t, 8)
	require.NoError(t, dst.Cache().LoadSnapshot(path))

	got, ok := dst.GetArtifact("/x/report.pdf")
	require.True(t, ok)
	assert.Equal(t, artifact.PDF, got.Type)
	assert.Equal(t, 12.0, got.Metadata.Float("page_count"))
	assert.Equal(t, 50, dst.Cache().Entries()[0].Priority)
}

func TestWrap(t *testing.T) {
	t.Parallel()

	inner, err := cache.New(cache.Options[artifact.Record]{Capacity: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = inner.Close() })

	c := Wrap(inner)
	c.CacheArtifact(artifact.Record{Path: "a.md", Type: artifact.Markdown})
	_, ok := inner.Get(Key("a.md"))
	assert.True(t, ok)
}
