package store

import (
	"fmt"
	"time"

	"sketchlog/internal/logging"
)

// MaintenanceConfig bounds profile retention.
type MaintenanceConfig struct {
	// MaxAgeDays prunes profiles created more than this many days ago;
	// 0 keeps everything.
	MaxAgeDays int
	// Vacuum reclaims disk space after pruning.
	Vacuum bool
}

// MaintenanceStats reports what a maintenance pass did.
type MaintenanceStats struct {
	ProfilesPruned int64
	ColumnsPruned  int64
	Vacuumed       bool
	Duration       time.Duration
}

// Maintenance prunes old profiles and optionally vacuums the database.
func (s *ProfileStore) Maintenance(cfg MaintenanceConfig) (*MaintenanceStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	stats := &MaintenanceStats{}

	if cfg.MaxAgeDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.MaxAgeDays)

		res, err := s.db.Exec(
			`DELETE FROM profile_columns WHERE profile_id IN
			   (SELECT id FROM profiles WHERE created_at < ?)`, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to prune profile columns: %w", err)
		}
		stats.ColumnsPruned, _ = res.RowsAffected()

		res, err = s.db.Exec("DELETE FROM profiles WHERE created_at < ?", cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to prune profiles: %w", err)
		}
		stats.ProfilesPruned, _ = res.RowsAffected()

		logging.Store("Maintenance pruned %d profiles (%d column rows) older than %d days",
			stats.ProfilesPruned, stats.ColumnsPruned, cfg.MaxAgeDays)
	}

	if cfg.Vacuum {
		if _, err := s.db.Exec("VACUUM"); err != nil {
			return nil, fmt.Errorf("failed to vacuum: %w", err)
		}
		stats.Vacuumed = true
		logging.StoreDebug("Maintenance vacuum complete")
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
