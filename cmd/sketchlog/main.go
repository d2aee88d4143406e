// sketchlog profiles tabular datasets: it streams CSV data into mergeable
// statistical profiles and writes them to local JSON files and an embedded
// SQLite store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sketchlog/internal/config"
	"sketchlog/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sketchlog",
	Short: "sketchlog - streaming dataset profiling",
	Long: `sketchlog profiles tabular datasets into lightweight statistical
summaries: per-column counts, inferred types, numeric distributions,
approximate quantiles, frequent items, and cardinality estimates.

Profiles are mergeable, rotate on wall-clock schedules, and can be split
across data segments. Output goes to local JSON files and an embedded
SQLite store for cross-run column history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose && !cfg.Logging.DebugMode {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}

		if err := logging.Initialize(".", logging.Settings{
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			logger.Warn("diagnostics logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sketchlog.yaml", "path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
