package writer

import (
	"context"

	"sketchlog/internal/core"
	"sketchlog/internal/logging"
	"sketchlog/internal/store"
)

// StoreWriter persists profile summaries into the embedded SQLite store.
type StoreWriter struct {
	store *store.ProfileStore
	owned bool
}

// NewStoreWriter opens (and owns) a profile store at the given path.
func NewStoreWriter(path string) (*StoreWriter, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return &StoreWriter{store: s, owned: true}, nil
}

// WrapStore builds a writer over an existing store. The caller keeps
// ownership; Close does not touch it.
func WrapStore(s *store.ProfileStore) *StoreWriter {
	return &StoreWriter{store: s}
}

// Write saves the profile's summary. The suffix is already reflected in the
// profile's tags and timestamps, so the store ignores it.
func (w *StoreWriter) Write(ctx context.Context, profile *core.DatasetProfile, suffix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := w.store.SaveProfile(profile.Summary())
	if err != nil {
		return err
	}
	logging.WriterDebug("Stored profile %s for dataset %s", id, profile.Name())
	return nil
}

// Close closes the underlying store when this writer owns it.
func (w *StoreWriter) Close() error {
	if !w.owned {
		return nil
	}
	return w.store.Close()
}
