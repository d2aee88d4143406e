package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsAddsMissingColumns(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	// A database created before tags, est_unique, and stddev existed
	_, err = db.Exec(`
		CREATE TABLE profiles (
			id TEXT PRIMARY KEY,
			dataset TEXT NOT NULL,
			summary TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE profile_columns (
			profile_id TEXT NOT NULL,
			column_name TEXT NOT NULL,
			total INTEGER DEFAULT 0,
			PRIMARY KEY(profile_id, column_name)
		);
	`)
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db))

	assert.True(t, columnExists(db, "profiles", "tags"))
	assert.True(t, columnExists(db, "profile_columns", "est_unique"))
	assert.True(t, columnExists(db, "profile_columns", "stddev"))

	// Running again is a no-op
	require.NoError(t, RunMigrations(db))
}

func TestRunMigrationsSkipsMissingTables(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	assert.NoError(t, RunMigrations(db))
}

func TestTableAndColumnExists(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	assert.False(t, tableExists(db, "profiles"))

	_, err = db.Exec("CREATE TABLE profiles (id TEXT PRIMARY KEY)")
	require.NoError(t, err)

	assert.True(t, tableExists(db, "profiles"))
	assert.True(t, columnExists(db, "profiles", "id"))
	assert.False(t, columnExists(db, "profiles", "tags"))
	assert.False(t, columnExists(db, "missing_table", "id"))
}
