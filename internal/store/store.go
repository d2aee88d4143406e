// Package store persists dataset profile summaries in an embedded SQLite
// database so column statistics can be queried across profiling runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"sketchlog/internal/core"
	"sketchlog/internal/logging"
)

// ProfileStore persists profile summaries plus a queryable per-column
// projection. Thread-safe with a read-write mutex; SQLite access is
// serialized through a single connection.
type ProfileStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// StoredProfile is one persisted profile summary.
type StoredProfile struct {
	ID               string
	Dataset          string
	SessionID        string
	DatasetTimestamp time.Time
	SessionTimestamp time.Time
	Tags             map[string]string
	Summary          core.DatasetSummary
	CreatedAt        time.Time
}

// ColumnStat is one column's flattened statistics from one stored profile,
// used to inspect how a column's distribution moves across runs.
type ColumnStat struct {
	ProfileID        string
	DatasetTimestamp time.Time
	Column           string
	InferredType     string
	Total            int64
	Nulls            int64
	EstUnique        float64
	Min              sql.NullFloat64
	Max              sql.NullFloat64
	Mean             sql.NullFloat64
	StdDev           sql.NullFloat64
}

// Open initializes the SQLite database at the given path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*ProfileStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	logging.Store("Opening profile store at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe under WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &ProfileStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Profile store ready")
	return s, nil
}

// initialize creates the required tables.
func (s *ProfileStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		session_id TEXT,
		dataset_ts DATETIME,
		session_ts DATETIME,
		tags TEXT DEFAULT '{}',
		summary TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_dataset ON profiles(dataset);
	CREATE INDEX IF NOT EXISTS idx_profiles_created ON profiles(created_at);

	CREATE TABLE IF NOT EXISTS profile_columns (
		profile_id TEXT NOT NULL,
		column_name TEXT NOT NULL,
		inferred_type TEXT,
		total INTEGER DEFAULT 0,
		nulls INTEGER DEFAULT 0,
		est_unique REAL DEFAULT 0,
		min REAL,
		max REAL,
		mean REAL,
		stddev REAL,
		PRIMARY KEY(profile_id, column_name)
	);
	CREATE INDEX IF NOT EXISTS idx_profile_columns_name ON profile_columns(column_name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveProfile persists one summary, returning the stored profile's ID.
func (s *ProfileStore) SaveProfile(summary core.DatasetSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "SaveProfile")
	defer timer.Stop()

	id := uuid.NewString()

	tags, err := json.Marshal(summary.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	blob, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO profiles (id, dataset, session_id, dataset_ts, session_ts, tags, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, summary.Name, summary.SessionID,
		summary.DatasetTimestamp.UTC(), summary.SessionTimestamp.UTC(),
		string(tags), string(blob),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert profile: %w", err)
	}

	colStmt, err := tx.Prepare(
		`INSERT INTO profile_columns
		 (profile_id, column_name, inferred_type, total, nulls, est_unique, min, max, mean, stddev)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare column insert: %w", err)
	}
	defer colStmt.Close()

	for name, col := range summary.Columns {
		var min, max, mean, stddev sql.NullFloat64
		if col.Numbers != nil {
			min = sql.NullFloat64{Float64: col.Numbers.Min, Valid: true}
			max = sql.NullFloat64{Float64: col.Numbers.Max, Valid: true}
			mean = sql.NullFloat64{Float64: col.Numbers.Mean, Valid: true}
			stddev = sql.NullFloat64{Float64: col.Numbers.StdDev, Valid: true}
		}
		if _, err := colStmt.Exec(
			id, name, string(col.InferredType),
			col.Count, col.NullCount, col.EstUniqueCount,
			min, max, mean, stddev,
		); err != nil {
			return "", fmt.Errorf("failed to insert column %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit profile: %w", err)
	}

	logging.StoreDebug("Saved profile %s for dataset %s (%d columns)", id, summary.Name, len(summary.Columns))
	return id, nil
}

// GetProfile loads one stored profile by ID.
func (s *ProfileStore) GetProfile(id string) (*StoredProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, dataset, session_id, dataset_ts, session_ts, tags, summary, created_at
		 FROM profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	return p, err
}

// ListProfiles returns stored profiles newest-first, optionally filtered by
// dataset name. limit <= 0 means no limit.
func (s *ProfileStore) ListProfiles(dataset string, limit int) ([]*StoredProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, dataset, session_id, dataset_ts, session_ts, tags, summary, created_at
	          FROM profiles`
	args := []interface{}{}
	if dataset != "" {
		query += " WHERE dataset = ?"
		args = append(args, dataset)
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []*StoredProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(r rowScanner) (*StoredProfile, error) {
	var p StoredProfile
	var tags, summary string
	if err := r.Scan(&p.ID, &p.Dataset, &p.SessionID,
		&p.DatasetTimestamp, &p.SessionTimestamp,
		&tags, &summary, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &p.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &p, nil
}

// ColumnStats returns a column's statistics across stored profiles of a
// dataset, newest-first. limit <= 0 means no limit.
func (s *ProfileStore) ColumnStats(dataset, column string, limit int) ([]ColumnStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT c.profile_id, p.dataset_ts, c.column_name, c.inferred_type,
	                 c.total, c.nulls, c.est_unique, c.min, c.max, c.mean, c.stddev
	          FROM profile_columns c
	          JOIN profiles p ON p.id = c.profile_id
	          WHERE p.dataset = ? AND c.column_name = ?
	          ORDER BY p.created_at DESC, c.profile_id`
	args := []interface{}{dataset, column}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column stats: %w", err)
	}
	defer rows.Close()

	var out []ColumnStat
	for rows.Next() {
		var c ColumnStat
		if err := rows.Scan(&c.ProfileID, &c.DatasetTimestamp, &c.Column, &c.InferredType,
			&c.Total, &c.Nulls, &c.EstUnique, &c.Min, &c.Max, &c.Mean, &c.StdDev); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stats returns row counts per table.
func (s *ProfileStore) Stats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"profiles", "profile_columns"} {
		var n int64
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}

// DB exposes the underlying connection for tests.
func (s *ProfileStore) DB() *sql.DB { return s.db }

// Close closes the store.
func (s *ProfileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logging.Store("Closing profile store: %s", s.dbPath)
	return s.db.Close()
}
