// Package artifactcache specializes the priority cache for artifact records:
// records are keyed by path and, unless the caller supplies a ranking score,
// prioritised by artifact type with boosts for code, docs and READMEs.
package artifactcache

import (
	"strings"

	"github.com/IvanBrykalov/artifactcache/artifact"
	"github.com/IvanBrykalov/artifactcache/cache"
)

// KeyPrefix namespaces artifact keys inside the shared cache.
const KeyPrefix = "artifact:"

// DefaultPriority applies to types missing from the priority table.
const DefaultPriority = 10

// Metadata boosts added on top of the type priority.
const (
	CodeBoost   = 20
	DocsBoost   = 10
	ReadmeBoost = 15
)

var typePriorities = map[artifact.Type]int{
	artifact.Zip:        90,
	artifact.Markdown:   70,
	artifact.Word:       60,
	artifact.Visio:      50,
	artifact.PDF:        40,
	artifact.PowerPoint: 30,
}

// Cache stores artifact records in a cache.Cache.
type Cache struct {
	c cache.Cache[artifact.Record]
}

// New builds the underlying cache from opt. A nil opt.Size defaults to
// artifact.Record.EstimateSize.
func New(opt cache.Options[artifact.Record]) (*Cache, error) {
	if opt.Size == nil {
		opt.Size = artifact.Record.EstimateSize
	}
	c, err := cache.New(opt)
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Wrap uses an existing cache, e.g. one shared with other value producers.
func Wrap(c cache.Cache[artifact.Record]) *Cache { return &Cache{c: c} }

// Key returns the cache key for an artifact path.
func Key(path string) string { return KeyPrefix + path }

// TypePriority returns the base priority of t.
func TypePriority(t artifact.Type) int {
	if p, ok := typePriorities[t]; ok {
		return p
	}
	return DefaultPriority
}

// Priority computes the automatic priority of rec.
func Priority(rec artifact.Record) int {
	p := TypePriority(rec.Type)
	if rec.Metadata.Bool("has_code") {
		p += CodeBoost
	}
	if rec.Metadata.Bool("has_docs") {
		p += DocsBoost
	}
	if strings.Contains(strings.ToLower(rec.Path), "readme") {
		p += ReadmeBoost
	}
	return p
}

// CacheArtifact caches rec under its path with the automatic priority.
func (a *Cache) CacheArtifact(rec artifact.Record) bool {
	return a.c.Put(Key(rec.Path), rec, Priority(rec))
}

// CacheArtifactWithPriority caches rec with a caller-supplied priority,
// typically a ranking score.
func (a *Cache) CacheArtifactWithPriority(rec artifact.Record, priority int) bool {
	return a.c.Put(Key(rec.Path), rec, priority)
}

// GetArtifact returns the cached record for path.
func (a *Cache) GetArtifact(path string) (artifact.Record, bool) {
	return a.c.Get(Key(path))
}

// RemoveArtifact drops the cached record for path.
func (a *Cache) RemoveArtifact(path string) bool {
	return a.c.Remove(Key(path))
}

// Cache exposes the underlying cache for stats, snapshots and Close.
func (a *Cache) Cache() cache.Cache[artifact.Record] { return a.c }

// Close closes the underlying cache.
func (a *Cache) Close() error { return a.c.Close() }
