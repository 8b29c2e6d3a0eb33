package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
	platformerrors "github.com/jmgilman/go/errors"
)

// snapshotVersion is bumped on incompatible changes to the body layout.
const snapshotVersion = 1

// snapshotFile is the on-disk envelope. Checksum is the xxhash64 of Body.
type snapshotFile struct {
	Version  int             `json:"version"`
	SavedAt  int64           `json:"saved_at"`
	Checksum uint64          `json:"checksum"`
	Body     json.RawMessage `json:"body"`
}

type snapshotBody struct {
	// Entries are ordered from least to most recently used.
	Entries      []snapshotEntry `json:"entries"`
	HighPriority []string        `json:"high_priority"`
	Frequent     []string        `json:"frequent"`
	Stats        snapshotStats   `json:"stats"`
}

type snapshotEntry struct {
	Key            string          `json:"key"`
	Value          json.RawMessage `json:"value"`
	Priority       int             `json:"priority"`
	CreatedAt      int64           `json:"created_at"`
	LastAccessedAt int64           `json:"last_accessed_at"`
	AccessCount    uint64          `json:"access_count"`
}

type snapshotStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
	Bytes     int64  `json:"bytes"`
}

// SaveSnapshot writes every non-expired entry, the protection sets and the
// counters to path. The file is written to a temporary sibling and renamed
// into place.
func (c *cache[V]) SaveSnapshot(path string) error {
	data, n, err := c.encodeSnapshot()
	if err != nil {
		c.opt.Logger.Error("error encoding cache snapshot", "path", path, "error", err)
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		c.opt.Logger.Error("error saving cache snapshot", "path", path, "error", err)
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "cache: write snapshot %s", path)
	}
	c.opt.Logger.Info("cache snapshot saved", "path", path, "entries", n)
	return nil
}

// LoadSnapshot replaces the cache contents with the snapshot at path.
// The file is fully decoded and verified before the live state is touched,
// so any error leaves the cache as it was. Hit and miss counters of the live
// cache are kept; the eviction counter is restored from the snapshot.
func (c *cache[V]) LoadSnapshot(path string) error {
	if c.closed.Load() {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.opt.Logger.Warn("cache snapshot not found", "path", path)
			return fmt.Errorf("%w: %s: %w", ErrSnapshotNotFound, path, err)
		}
		c.opt.Logger.Error("error reading cache snapshot", "path", path, "error", err)
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "cache: read snapshot %s", path)
	}

	body, entries, err := c.decodeSnapshot(raw)
	if err != nil {
		c.opt.Logger.Error("error loading cache snapshot", "path", path, "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	high := toSet(body.HighPriority)
	frequent := toSet(body.Frequent)

	c.resetLocked()
	c.evictions = body.Stats.Evictions
	for _, e := range c.fitLocked(entries, now) {
		c.insertLocked(e, now)
		if _, ok := high[e.key]; ok {
			c.high[e.key] = struct{}{}
		}
		if _, ok := frequent[e.key]; ok {
			c.frequent[e.key] = struct{}{}
		}
	}
	c.pruneFrequentLocked(now)
	c.reportLocked()

	c.opt.Logger.Info("cache snapshot loaded", "path", path, "entries", len(c.m))
	return nil
}

// fitLocked drops expired entries and keeps the most recently used ones that
// fit both limits, preserving LRU→MRU order. Dropped entries were never
// resident here, so they are not evictions.
func (c *cache[V]) fitLocked(entries []*entry[V], now int64) []*entry[V] {
	keep := make([]*entry[V], 0, min(len(entries), c.opt.Capacity))
	var bytes int64
	for i := len(entries) - 1; i >= 0 && len(keep) < c.opt.Capacity; i-- {
		e := entries[i]
		if c.expired(e, now) || bytes+e.size > c.opt.MaxBytes {
			continue
		}
		bytes += e.size
		keep = append(keep, e)
	}
	slices.Reverse(keep)
	return keep
}

func (c *cache[V]) encodeSnapshot() ([]byte, int, error) {
	c.mu.RLock()
	now := c.now()
	body := snapshotBody{
		Entries:      make([]snapshotEntry, 0, len(c.m)),
		HighPriority: setKeys(c.high),
		Frequent:     setKeys(c.frequent),
		Stats: snapshotStats{
			Hits:      c.hits,
			Misses:    c.misses,
			Evictions: c.evictions,
			Entries:   len(c.m),
			Bytes:     c.bytes,
		},
	}
	for e := c.tail; e != nil; e = e.prev {
		if c.expired(e, now) {
			continue
		}
		val, err := json.Marshal(e.val)
		if err != nil {
			c.mu.RUnlock()
			return nil, 0, platformerrors.Wrapf(err, platformerrors.CodeInternal, "cache: encode value for %q", e.key)
		}
		body.Entries = append(body.Entries, snapshotEntry{
			Key:            e.key,
			Value:          val,
			Priority:       e.priority,
			CreatedAt:      e.created,
			LastAccessedAt: e.accessed,
			AccessCount:    e.hits,
		})
	}
	c.mu.RUnlock()

	rawBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, platformerrors.Wrap(err, platformerrors.CodeInternal, "cache: encode snapshot")
	}
	data, err := json.Marshal(snapshotFile{
		Version:  snapshotVersion,
		SavedAt:  now,
		Checksum: xxhash.Sum64(rawBody),
		Body:     rawBody,
	})
	if err != nil {
		return nil, 0, platformerrors.Wrap(err, platformerrors.CodeInternal, "cache: encode snapshot")
	}
	return data, len(body.Entries), nil
}

// decodeSnapshot verifies raw and rebuilds detached entries (LRU first) with
// recomputed sizes. It never touches the live cache.
func (c *cache[V]) decodeSnapshot(raw []byte) (snapshotBody, []*entry[V], error) {
	var (
		f    snapshotFile
		body snapshotBody
	)
	if err := json.Unmarshal(raw, &f); err != nil {
		return body, nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}
	if f.Version != snapshotVersion {
		return body, nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotCorrupt, f.Version)
	}
	if sum := xxhash.Sum64(f.Body); sum != f.Checksum {
		return body, nil, fmt.Errorf("%w: checksum mismatch", ErrSnapshotCorrupt)
	}
	if err := json.Unmarshal(f.Body, &body); err != nil {
		return body, nil, fmt.Errorf("%w: %w", ErrSnapshotCorrupt, err)
	}

	entries := make([]*entry[V], 0, len(body.Entries))
	for _, se := range body.Entries {
		var v V
		if err := json.Unmarshal(se.Value, &v); err != nil {
			return body, nil, fmt.Errorf("%w: value for %q: %w", ErrSnapshotCorrupt, se.Key, err)
		}
		entries = append(entries, &entry[V]{
			key:      se.Key,
			val:      v,
			priority: se.Priority,
			created:  se.CreatedAt,
			accessed: se.LastAccessedAt,
			hits:     se.AccessCount,
			size:     c.opt.Size(v),
		})
	}
	return body, entries, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func setKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(keys []string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}
