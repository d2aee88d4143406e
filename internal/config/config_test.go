package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchlog/internal/segment"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "default-project", cfg.Project)
	assert.Equal(t, "default-pipeline", cfg.Pipeline)
	assert.Equal(t, 1, cfg.Session.CacheSize)
	assert.False(t, cfg.Session.Rotation.Enabled())
	require.Len(t, cfg.Writers, 1)
	assert.Equal(t, "local", cfg.Writers[0].Type)
	assert.Equal(t, "output", cfg.Writers[0].Path)
	assert.Equal(t, "data/sketchlog.db", cfg.Store.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Project, cfg.Project)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sketchlog.yaml")
	content := `
project: fraud
pipeline: scoring
session:
  cache_size: 3
  rotation:
    unit: h
    interval: 6
  segment_keys:
    - country
writers:
  - type: local
    path: out
    filename: "{name}_{timestamp}"
    state: true
  - type: store
store:
  path: profiles.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fraud", cfg.Project)
	assert.Equal(t, "scoring", cfg.Pipeline)
	assert.Equal(t, 3, cfg.Session.CacheSize)
	assert.Equal(t, "h", cfg.Session.Rotation.Unit)
	assert.Equal(t, 6, cfg.Session.Rotation.Interval)
	assert.True(t, cfg.Session.Rotation.Enabled())
	assert.Equal(t, []string{"country"}, cfg.Session.SegmentKeys)
	require.Len(t, cfg.Writers, 2)
	assert.True(t, cfg.Writers[0].State)
	assert.Equal(t, "store", cfg.Writers[1].Type)
	assert.Equal(t, "profiles.db", cfg.Store.Path)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "sketchlog.yaml")

	cfg := DefaultConfig()
	cfg.Project = "saved-project"
	cfg.Session.Rotation = RotationConfig{Unit: "m", Interval: 30}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved-project", loaded.Project)
	assert.Equal(t, "m", loaded.Session.Rotation.Unit)
	assert.Equal(t, 30, loaded.Session.Rotation.Interval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative cache size",
			mutate:  func(c *Config) { c.Session.CacheSize = -1 },
			wantErr: "cache_size",
		},
		{
			name:    "bad rotation unit",
			mutate:  func(c *Config) { c.Session.Rotation.Unit = "w" },
			wantErr: "rotation unit",
		},
		{
			name:    "negative rotation interval",
			mutate:  func(c *Config) { c.Session.Rotation = RotationConfig{Unit: "h", Interval: -1} },
			wantErr: "interval",
		},
		{
			name:    "unknown writer type",
			mutate:  func(c *Config) { c.Writers[0].Type = "s3" },
			wantErr: "unknown type",
		},
		{
			name: "both segmentation modes",
			mutate: func(c *Config) {
				c.Session.SegmentKeys = []string{"a"}
				c.Session.FixedSegments = [][]segment.Tag{{{Key: "b", Value: "1"}}}
			},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
