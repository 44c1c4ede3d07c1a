package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/config"
)

func TestLoadFileWritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, config.DefaultKey, cfg.Storage.Key)
	assert.Equal(t, dir, cfg.Storage.Dir)
	assert.Equal(t, "reject", cfg.StartWhileTracking)

	_, err = os.Stat(path)
	require.NoError(t, err, "template should be written")

	// The written template must parse back to the same values.
	again, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: sqlite\ntimezone: UTC\n"), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, config.DefaultKey, cfg.Storage.Key)
	assert.Equal(t, config.DefaultStartWhileTracking, cfg.StartWhileTracking)
	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"backend", "storage:\n  backend: redis\n"},
		{"policy", "start_while_tracking: ignore\n"},
		{"level", "log:\n  level: chatty\n"},
		{"timezone", "timezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := config.LoadFile(path)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoadFileMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed\n"), 0o600))

	cfg, err := config.LoadFile(path)
	assert.Error(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseLevel(t *testing.T) {
	l, err := config.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = config.ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, l)
}
