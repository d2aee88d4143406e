// Package config loads, defaults, and watches sketchlog configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"sketchlog/internal/core"
	"sketchlog/internal/segment"
)

// Config holds all sketchlog configuration.
type Config struct {
	// Project identifies the owning project in profile tags.
	Project string `yaml:"project"`
	// Pipeline identifies the data pipeline in profile tags.
	Pipeline string `yaml:"pipeline"`

	// Session configures loggers handed out by the session.
	Session SessionConfig `yaml:"session"`

	// Writers lists the profile writers every logger flushes through.
	Writers []WriterConfig `yaml:"writers"`

	// Store configures the embedded profile store.
	Store StoreConfig `yaml:"store"`

	// Logging configures internal diagnostics.
	Logging LoggingConfig `yaml:"logging"`
}

// SessionConfig configures logger behavior.
type SessionConfig struct {
	// CacheSize bounds how many rotated profiles a logger retains.
	CacheSize int `yaml:"cache_size"`

	// Rotation is the profile rotation schedule; empty disables rotation.
	Rotation RotationConfig `yaml:"rotation"`

	// Sketches sizes the per-column sketches.
	Sketches core.SketchConfig `yaml:"sketches"`

	// SegmentKeys enables group-by segmentation on these columns.
	SegmentKeys []string `yaml:"segment_keys"`

	// FixedSegments enables fixed-tag segmentation.
	FixedSegments [][]segment.Tag `yaml:"fixed_segments"`

	// ProfileFullDataset keeps the unsegmented profile alongside segments.
	ProfileFullDataset bool `yaml:"profile_full_dataset"`
}

// RotationConfig declares a wall-clock rotation schedule.
type RotationConfig struct {
	// Unit is one of "s", "m", "h", "d"; empty disables rotation.
	Unit string `yaml:"unit"`
	// Interval multiplies the unit (default 1).
	Interval int `yaml:"interval"`
	// Background runs a ticker that rotates idle loggers too.
	Background bool `yaml:"background"`
}

// Enabled reports whether rotation is configured.
func (r RotationConfig) Enabled() bool { return r.Unit != "" }

// WriterConfig declares one profile writer.
type WriterConfig struct {
	// Type selects the writer: "local" or "store".
	Type string `yaml:"type"`
	// Path is the output directory (local writer).
	Path string `yaml:"path"`
	// Filename is the output name template; tokens {name}, {session},
	// {timestamp} are substituted (local writer).
	Filename string `yaml:"filename"`
	// Pretty indents JSON output (local writer).
	Pretty bool `yaml:"pretty"`
	// State writes full profile state alongside the summary so profiles
	// can be merged later (local writer).
	State bool `yaml:"state"`
	// Database overrides the store path (store writer).
	Database string `yaml:"database"`
}

// StoreConfig configures the embedded SQLite profile store.
type StoreConfig struct {
	Path        string            `yaml:"path"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// MaintenanceConfig bounds profile retention in the store.
type MaintenanceConfig struct {
	// MaxAgeDays prunes profiles older than this many days; 0 keeps all.
	MaxAgeDays int `yaml:"max_age_days"`
	// Vacuum reclaims disk space after pruning.
	Vacuum bool `yaml:"vacuum"`
}

// LoggingConfig configures internal diagnostics logging.
type LoggingConfig struct {
	// DebugMode is the master toggle - false means no diagnostics files.
	DebugMode bool `yaml:"debug_mode"`
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Categories toggles individual categories; nil enables all.
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Project:  "default-project",
		Pipeline: "default-pipeline",

		Session: SessionConfig{
			CacheSize: 1,
		},

		Writers: []WriterConfig{
			{
				Type:     "local",
				Path:     "output",
				Filename: "{name}_{timestamp}",
			},
		},

		Store: StoreConfig{
			Path: "data/sketchlog.db",
			Maintenance: MaintenanceConfig{
				MaxAgeDays: 0,
				Vacuum:     false,
			},
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects configurations no session could run with.
func (c *Config) Validate() error {
	if c.Session.CacheSize < 0 {
		return fmt.Errorf("config: session.cache_size must be >= 0")
	}
	if r := c.Session.Rotation; r.Unit != "" {
		switch r.Unit {
		case "s", "m", "h", "d":
		default:
			return fmt.Errorf("config: invalid rotation unit %q, valid choices are [s m h d]", r.Unit)
		}
		if r.Interval < 0 {
			return fmt.Errorf("config: rotation interval must be >= 0")
		}
	}
	for i, w := range c.Writers {
		switch w.Type {
		case "local", "store":
		default:
			return fmt.Errorf("config: writer %d: unknown type %q", i, w.Type)
		}
	}
	if len(c.Session.SegmentKeys) > 0 && len(c.Session.FixedSegments) > 0 {
		return fmt.Errorf("config: segment_keys and fixed_segments are mutually exclusive")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SKETCHLOG_PROJECT"); v != "" {
		c.Project = v
	}
	if v := os.Getenv("SKETCHLOG_PIPELINE"); v != "" {
		c.Pipeline = v
	}
	if v := os.Getenv("SKETCHLOG_OUTPUT_DIR"); v != "" {
		applied := false
		for i := range c.Writers {
			if c.Writers[i].Type == "local" {
				c.Writers[i].Path = v
				applied = true
			}
		}
		if !applied {
			c.Writers = append(c.Writers, WriterConfig{
				Type:     "local",
				Path:     v,
				Filename: "{name}_{timestamp}",
			})
		}
	}
	if v := os.Getenv("SKETCHLOG_DATABASE"); v != "" {
		c.Store.Path = v
		for i := range c.Writers {
			if c.Writers[i].Type == "store" {
				c.Writers[i].Database = v
			}
		}
	}
	if v := os.Getenv("SKETCHLOG_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = debug
		}
	}
}
