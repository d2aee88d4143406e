package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sketchlog/internal/core"
	"sketchlog/internal/logging"
)

// DefaultFilenameTemplate names output files when no template is configured.
const DefaultFilenameTemplate = "{name}_{timestamp}"

// LocalOptions configures a LocalWriter.
type LocalOptions struct {
	// Path is the output directory; created on first write.
	Path string
	// Filename is the name template. Tokens {name}, {session}, and
	// {timestamp} are substituted from the profile.
	Filename string
	// Pretty indents the summary JSON.
	Pretty bool
	// State also writes the full profile state (<file>.profile.json) so
	// flushed profiles can be merged later.
	State bool
}

// LocalWriter writes profile summaries as JSON files under a directory.
// Files are written atomically (temp file + rename).
type LocalWriter struct {
	opts LocalOptions
}

// NewLocalWriter validates options and returns a LocalWriter.
func NewLocalWriter(opts LocalOptions) (*LocalWriter, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("local writer: output path required")
	}
	if opts.Filename == "" {
		opts.Filename = DefaultFilenameTemplate
	}
	return &LocalWriter{opts: opts}, nil
}

// Write renders the profile summary (and optionally full state) to disk.
func (w *LocalWriter) Write(ctx context.Context, profile *core.DatasetProfile, suffix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.opts.Path, 0755); err != nil {
		return fmt.Errorf("local writer: create output dir: %w", err)
	}

	base := w.renderName(profile) + suffix

	summary := profile.Summary()
	var data []byte
	var err error
	if w.opts.Pretty {
		data, err = json.MarshalIndent(summary, "", "  ")
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return fmt.Errorf("local writer: marshal summary: %w", err)
	}

	summaryPath := filepath.Join(w.opts.Path, base+".json")
	if err := atomicWrite(summaryPath, data); err != nil {
		return fmt.Errorf("local writer: %w", err)
	}
	logging.WriterDebug("Wrote summary %s", summaryPath)

	if w.opts.State {
		state, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("local writer: marshal profile state: %w", err)
		}
		statePath := filepath.Join(w.opts.Path, base+".profile.json")
		if err := atomicWrite(statePath, state); err != nil {
			return fmt.Errorf("local writer: %w", err)
		}
		logging.WriterDebug("Wrote profile state %s", statePath)
	}

	return nil
}

// Close is a no-op; the writer holds no handles between writes.
func (w *LocalWriter) Close() error { return nil }

func (w *LocalWriter) renderName(profile *core.DatasetProfile) string {
	name := w.opts.Filename
	name = strings.ReplaceAll(name, "{name}", sanitize(profile.Name()))
	name = strings.ReplaceAll(name, "{session}", sanitize(profile.SessionID()))
	name = strings.ReplaceAll(name, "{timestamp}",
		profile.DatasetTimestamp().UTC().Format("2006-01-02_15-04-05"))
	return name
}

// sanitize strips path separators out of template values.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, string(os.PathSeparator), "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sketchlog-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadProfile loads a full profile state file written with State enabled.
func ReadProfile(path string) (*core.DatasetProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile state: %w", err)
	}
	var p core.DatasetProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile state %s: %w", path, err)
	}
	return &p, nil
}
