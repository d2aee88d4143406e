// Package writer defines the output side of profiling: Writer destinations
// a logger flushes dataset profiles through.
package writer

import (
	"context"
	"fmt"

	"sketchlog/internal/config"
	"sketchlog/internal/core"
)

// Writer persists one dataset profile. The suffix distinguishes rotation
// windows and segments and is appended to whatever naming scheme the
// destination uses; it may be empty.
type Writer interface {
	Write(ctx context.Context, profile *core.DatasetProfile, suffix string) error
	Close() error
}

// FromConfig builds the writers a config declares. Writers already built
// are closed when a later one fails so no file handles leak.
func FromConfig(cfgs []config.WriterConfig, storePath string) ([]Writer, error) {
	writers := make([]Writer, 0, len(cfgs))
	for i, wc := range cfgs {
		var w Writer
		var err error
		switch wc.Type {
		case "local":
			w, err = NewLocalWriter(LocalOptions{
				Path:     wc.Path,
				Filename: wc.Filename,
				Pretty:   wc.Pretty,
				State:    wc.State,
			})
		case "store":
			path := wc.Database
			if path == "" {
				path = storePath
			}
			w, err = NewStoreWriter(path)
		default:
			err = fmt.Errorf("unknown writer type %q", wc.Type)
		}
		if err != nil {
			for _, open := range writers {
				open.Close()
			}
			return nil, fmt.Errorf("writer %d: %w", i, err)
		}
		writers = append(writers, w)
	}
	return writers, nil
}
