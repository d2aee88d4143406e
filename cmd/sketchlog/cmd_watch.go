package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sketchlog/internal/config"
	"sketchlog/internal/logging"
	"sketchlog/internal/session"
)

var (
	watchDataset string
	watchSettle  time.Duration
)

// watchCmd continuously profiles CSV files as they land in a directory.
var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Continuously profile CSV files dropped into a directory",
	Long: `Watches a directory and streams every CSV file written into it through
a rotating dataset logger. Intended for drop-folder pipelines where an
upstream job lands files on a schedule.

Runs until interrupted. Rotation follows the config's session.rotation
section; the config file itself is watched, so logging settings can be
changed without a restart.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDataset, "dataset", "d", "incoming", "dataset name for profiled files")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "wait after the last write before reading a file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := session.NewSession(cfg)
	if err != nil {
		return err
	}
	l, err := sess.Logger(watchDataset)
	if err != nil {
		sess.Close()
		return err
	}

	// Live-reload logging settings when the config file changes.
	go func() {
		err := config.Watch(ctx, configPath, func(next *config.Config) {
			logging.Reconfigure(logging.Settings{
				DebugMode:  next.Logging.DebugMode,
				Level:      next.Logging.Level,
				Categories: next.Logging.Categories,
			})
			logger.Info("logging settings reloaded", zap.String("config", configPath))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("config watch stopped", zap.Error(err))
		}
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		sess.Close()
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		sess.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info("watching for CSV files",
		zap.String("dir", dir),
		zap.String("dataset", watchDataset),
		zap.String("session", sess.ID()))
	fmt.Printf("Watching %s (dataset %q). Ctrl-C to stop.\n", dir, watchDataset)

	// Settle timers per path so a file is read once its writer goes quiet.
	pending := make(map[string]*time.Timer)
	fileReady := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			profiles, err := sess.Close()
			if err != nil {
				return err
			}
			styles := defaultTableStyles()
			for _, p := range profiles {
				fmt.Print(renderSummaryTable(p.Summary(), styles))
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				sess.Close()
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
				continue
			}
			path := event.Name
			if t, ok := pending[path]; ok {
				t.Reset(watchSettle)
				continue
			}
			pending[path] = time.AfterFunc(watchSettle, func() {
				select {
				case fileReady <- path:
				case <-ctx.Done():
				}
			})

		case path := <-fileReady:
			delete(pending, path)
			if err := l.LogCSVFile(path, session.CSVOptions{}); err != nil {
				logger.Warn("failed to profile file", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("profiled file", zap.String("path", path))

		case err, ok := <-watcher.Errors:
			if !ok {
				sess.Close()
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
