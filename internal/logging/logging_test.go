package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_TextAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "key", "k1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "key=k1")
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, closer, err := New(Config{Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Info("cache snapshot saved", "entries", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cache snapshot saved", rec["msg"])
	assert.Equal(t, 3.0, rec["entries"])
}

func TestNew_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "artifactcache.log")
	var fallback bytes.Buffer
	log, closer, err := New(Config{Level: "debug", File: path, MaxSizeMB: 1}, &fallback)
	require.NoError(t, err)

	log.Debug("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Zero(t, fallback.Len())
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	_, _, err := New(Config{Format: "xml"}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = New(Config{MaxBackups: -1}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
