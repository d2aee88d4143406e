package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"sketchlog/internal/logging"
)

// watchDebounce coalesces the bursts of write events editors and atomic
// saves produce into a single reload.
const watchDebounce = 250 * time.Millisecond

// Watch reloads the config file whenever it changes and delivers the
// re-parsed Config to onChange. It blocks until ctx is canceled. Parse
// failures are logged and skipped; the previous config stays in effect.
//
// The parent directory is watched rather than the file itself because
// atomic saves (write temp + rename) replace the inode the watch was on.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(path)
	logging.Config("Watching config file: %s", target)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logging.ConfigDebug("Config event: %s", event)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load(target)
			if err != nil {
				logging.Get(logging.CategoryConfig).Warn("Config reload failed: %v", err)
				continue
			}
			logging.Config("Config reloaded from %s", target)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategoryConfig).Warn("Config watch error: %v", err)
		}
	}
}
