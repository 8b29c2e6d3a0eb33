// Package artifact defines the records produced by the external classifier and
// parsers and consumed read-only by the ranking engine and the artifact cache.
package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// Type is the closed set of artifact kinds. Scoring tables are keyed by Type
// rather than attached to it as behavior.
type Type int

const (
	Unknown Type = iota
	Zip
	Markdown
	Word
	Visio
	PDF
	PowerPoint
)

// Types lists every known type, Unknown last.
var Types = []Type{Zip, Markdown, Word, Visio, PDF, PowerPoint, Unknown}

var typeNames = map[Type]string{
	Unknown:    "UNKNOWN",
	Zip:        "ZIP",
	Markdown:   "MARKDOWN",
	Word:       "WORD",
	Visio:      "VISIO",
	PDF:        "PDF",
	PowerPoint: "POWERPOINT",
}

var extensions = map[string]Type{
	".zip":      Zip,
	".zipx":     Zip,
	".md":       Markdown,
	".markdown": Markdown,
	".mdown":    Markdown,
	".vsdx":     Visio,
	".vsd":      Visio,
	".docx":     Word,
	".doc":      Word,
	".pdf":      PDF,
	".pptx":     PowerPoint,
	".ppt":      PowerPoint,
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return typeNames[Unknown]
}

// ParseType maps a type name (case-insensitive) to a Type.
// Unrecognized names yield Unknown.
func ParseType(s string) Type {
	up := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == up {
			return t
		}
	}
	return Unknown
}

// TypeForPath guesses the type from a file extension. It is a convenience for
// tools feeding records by hand; real classification happens upstream.
func TypeForPath(path string) Type {
	if t, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return Unknown
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	*t = ParseType(string(b))
	return nil
}

// Record is one classified artifact.
type Record struct {
	Path     string    `json:"file_path"`
	Name     string    `json:"file_name,omitempty"`
	Type     Type      `json:"artifact_type"`
	Size     int64     `json:"file_size"`
	ModTime  time.Time `json:"modified_time"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

// FileName returns Name, or the base name of Path when Name is empty.
func (r Record) FileName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Path == "" {
		return ""
	}
	return filepath.Base(r.Path)
}

// EstimateSize approximates the resident footprint of a record: its strings
// plus the JSON encoding of its metadata. The result depends only on the
// record's content.
func (r Record) EstimateSize() int64 {
	n := int64(len(r.Path) + len(r.Name) + 48)
	if len(r.Metadata) > 0 {
		if b, err := json.Marshal(r.Metadata); err == nil {
			n += int64(len(b))
		} else {
			n += int64(len(fmt.Sprint(r.Metadata)))
		}
	}
	return n
}

// Metadata is the free-form map produced by format parsers. All accessors are
// total: missing or mistyped fields read as zero values.
type Metadata map[string]any

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Float reads a numeric field.
func (m Metadata) Float(key string) float64 {
	f, _ := toFloat(m[key])
	return f
}

// Int reads a numeric field truncated to int64.
func (m Metadata) Int(key string) int64 {
	f := m.Float(key)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// Bool reads a boolean field. Non-zero numbers and "true" strings count as true.
func (m Metadata) Bool(key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

// String reads a string field.
func (m Metadata) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Len returns the element count of a list or map field. Numeric fields are
// returned as-is so parsers may report either a list or a pre-computed count.
func (m Metadata) Len(key string) int {
	switch v := m[key].(type) {
	case nil:
		return 0
	case []any:
		return len(v)
	case []string:
		return len(v)
	case map[string]any:
		return len(v)
	case Metadata:
		return len(v)
	case string:
		return 0
	default:
		f, _ := toFloat(v)
		switch {
		case f <= 0:
			return 0
		case f >= math.MaxInt:
			return math.MaxInt
		}
		return int(f)
	}
}

// Nested returns a sub-map, or nil.
func (m Metadata) Nested(key string) Metadata {
	switch v := m[key].(type) {
	case map[string]any:
		return v
	case Metadata:
		return v
	}
	return nil
}

// toFloat reports false for non-numeric values and for NaN or ±Inf.
func toFloat(v any) (float64, bool) {
	f, ok := numeric(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
