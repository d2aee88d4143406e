package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sketchlog/internal/store"
)

var (
	pruneDays   int
	pruneVacuum bool
	pruneDBPath string
)

// pruneCmd runs store maintenance.
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old profiles from the store",
	Long: `Deletes stored profiles older than --days and optionally vacuums the
database afterwards. Flag values default to the config's maintenance
section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := pruneDBPath
		if path == "" {
			path = cfg.Store.Path
		}
		days := pruneDays
		if days == 0 {
			days = cfg.Store.Maintenance.MaxAgeDays
		}
		vacuum := pruneVacuum || cfg.Store.Maintenance.Vacuum

		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Maintenance(store.MaintenanceConfig{
			MaxAgeDays: days,
			Vacuum:     vacuum,
		})
		if err != nil {
			return err
		}

		logger.Info("maintenance complete",
			zap.Int64("profiles_pruned", stats.ProfilesPruned),
			zap.Int64("columns_pruned", stats.ColumnsPruned),
			zap.Bool("vacuumed", stats.Vacuumed),
			zap.Duration("duration", stats.Duration))

		fmt.Printf("Pruned %d profiles (%d column rows) in %v\n",
			stats.ProfilesPruned, stats.ColumnsPruned, stats.Duration)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "prune profiles older than this many days")
	pruneCmd.Flags().BoolVar(&pruneVacuum, "vacuum", false, "vacuum after pruning")
	pruneCmd.Flags().StringVar(&pruneDBPath, "db", "", "profile store path (overrides config)")
}
