package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDeliversReloadedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sketchlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: before\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case changed <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before modifying the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("project: after\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "after", cfg.Project)
	case <-ctx.Done():
		t.Fatal("timed out waiting for config reload")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchSkipsMalformedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sketchlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: ok\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan *Config, 2)
	go func() {
		_ = Watch(ctx, path, func(cfg *Config) { changed <- cfg })
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("project: [broken"), 0o644))

	// Broken content is skipped; a later valid write still lands.
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("project: fixed\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "fixed", cfg.Project)
	case <-ctx.Done():
		t.Fatal("timed out waiting for config reload")
	}
}
