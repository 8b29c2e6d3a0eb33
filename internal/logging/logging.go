// Package logging builds the process slog.Logger from configuration,
// optionally writing through a size-rotated file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults for file rotation.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
)

// ErrInvalidConfig wraps every logging configuration failure.
var ErrInvalidConfig = platformerrors.New(platformerrors.CodeInvalidConfig, "logging: invalid configuration")

// Config selects level, encoding and destination.
type Config struct {
	// Level is debug, info, warn or error.
	Level string `koanf:"level" json:"level"`
	// Format is text or json.
	Format string `koanf:"format" json:"format"`
	// File, when set, receives logs instead of the fallback writer and is
	// rotated once it reaches MaxSizeMB.
	File       string `koanf:"file" json:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups" json:"max_backups"`
}

// Validate checks level and format.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 {
		return fmt.Errorf("%w: rotation limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidConfig, s)
	}
	return l, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for cfg. Logs go to fallback unless cfg.File is set.
// The returned Closer releases the log file and must be closed on shutdown.
func New(cfg Config, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	level, _ := ParseLevel(cfg.Level)

	var (
		w      = fallback
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, DefaultMaxBackups),
		}
		w, closer = lj, lj
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
