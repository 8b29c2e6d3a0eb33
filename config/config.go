// Package config loads application configuration from YAML or JSON.
// Keys absent from the input keep the values of Default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/IvanBrykalov/artifactcache/cache"
	"github.com/IvanBrykalov/artifactcache/internal/logging"
	"github.com/IvanBrykalov/artifactcache/ranking"
)

// Format is the encoding of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	// ErrNotFound is returned by Load when the file does not exist.
	ErrNotFound = platformerrors.New(platformerrors.CodeNotFound, "config: file not found")
	// ErrUnsupportedFormat is returned for unknown extensions or formats.
	ErrUnsupportedFormat = platformerrors.New(platformerrors.CodeInvalidInput, "config: unsupported format")
	// ErrParse wraps syntax and decoding failures.
	ErrParse = platformerrors.New(platformerrors.CodeInvalidInput, "config: parse failed")
	// ErrInvalid wraps validation failures.
	ErrInvalid = platformerrors.New(platformerrors.CodeInvalidConfig, "config: invalid configuration")
)

// Config is the root document.
type Config struct {
	Cache   Cache          `koanf:"cache" json:"cache"`
	Ranking Ranking        `koanf:"ranking" json:"ranking"`
	Log     logging.Config `koanf:"log" json:"log"`
	Metrics Metrics        `koanf:"metrics" json:"metrics"`
}

// Cache configures the priority cache.
type Cache struct {
	Capacity              int           `koanf:"capacity" json:"capacity"`
	MaxBytesMB            int64         `koanf:"max_bytes_mb" json:"max_bytes_mb"`
	TTL                   time.Duration `koanf:"ttl" json:"ttl"`
	CleanupInterval       time.Duration `koanf:"cleanup_interval" json:"cleanup_interval"`
	HighPriorityThreshold int           `koanf:"high_priority_threshold" json:"high_priority_threshold"`
	PressureRatio         float64       `koanf:"pressure_ratio" json:"pressure_ratio"`
	FrequentHits          uint64        `koanf:"frequent_hits" json:"frequent_hits"`
	FrequentWindow        time.Duration `koanf:"frequent_window" json:"frequent_window"`
	SnapshotPath          string        `koanf:"snapshot_path" json:"snapshot_path"`
}

// Ranking configures the ranking engine.
type Ranking struct {
	Weights ranking.Weights `koanf:"weights" json:"weights"`
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr      string `koanf:"addr" json:"addr"`
	Namespace string `koanf:"namespace" json:"namespace"`
	Subsystem string `koanf:"subsystem" json:"subsystem"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: Cache{
			Capacity:              1000,
			MaxBytesMB:            100,
			TTL:                   time.Hour,
			HighPriorityThreshold: cache.DefaultHighPriorityThreshold,
			PressureRatio:         cache.DefaultPressureRatio,
			FrequentHits:          cache.DefaultFrequentHits,
			FrequentWindow:        cache.DefaultFrequentWindow,
		},
		Ranking: Ranking{Weights: ranking.DefaultWeights()},
		Log:     logging.Config{Level: "info", Format: "text"},
		Metrics: Metrics{Namespace: "artifactcache", Subsystem: "cache"},
	}
}

// Load reads the file at path; the format follows its extension
// (.yaml, .yml or .json).
func Load(path string) (Config, error) {
	format, err := formatForPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Config{}, platformerrors.Wrapf(err, platformerrors.CodeInternal, "config: read %s", path)
	}
	return LoadBytes(data, format)
}

// LoadBytes decodes data over Default and validates the result.
// Empty data yields Default.
func LoadBytes(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	cfg := Default()
	if len(data) > 0 {
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrParse, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	cc := c.Cache
	switch {
	case cc.Capacity <= 0:
		return fmt.Errorf("%w: cache.capacity must be > 0", ErrInvalid)
	case cc.MaxBytesMB <= 0:
		return fmt.Errorf("%w: cache.max_bytes_mb must be > 0", ErrInvalid)
	case cc.TTL < 0 || cc.CleanupInterval < 0 || cc.FrequentWindow < 0:
		return fmt.Errorf("%w: cache durations must not be negative", ErrInvalid)
	case cc.PressureRatio <= 0 || cc.PressureRatio > 1:
		return fmt.Errorf("%w: cache.pressure_ratio must be in (0,1], got %v", ErrInvalid, cc.PressureRatio)
	case cc.HighPriorityThreshold < 0:
		return fmt.Errorf("%w: cache.high_priority_threshold must not be negative", ErrInvalid)
	}
	if err := c.Ranking.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: ranking.weights: %w", ErrInvalid, err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: log: %w", ErrInvalid, err)
	}
	return nil
}

// CacheOptions converts the cache section into cache.Options.
func CacheOptions[V any](c Cache, logger *slog.Logger) cache.Options[V] {
	return cache.Options[V]{
		Capacity:              c.Capacity,
		MaxBytes:              c.MaxBytesMB << 20,
		TTL:                   c.TTL,
		HighPriorityThreshold: c.HighPriorityThreshold,
		PressureRatio:         c.PressureRatio,
		FrequentHits:          c.FrequentHits,
		FrequentWindow:        c.FrequentWindow,
		CleanupInterval:       c.CleanupInterval,
		Logger:                logger,
	}
}

// RankingOptions converts the ranking section into engine options.
func RankingOptions(r Ranking, logger *slog.Logger) []ranking.Option {
	return []ranking.Option{ranking.WithWeights(r.Weights), ranking.WithLogger(logger)}
}

func formatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}
