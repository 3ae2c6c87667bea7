// Package state provides SQLite-based persistence for RankPilot.
// It stores completed orchestrator runs, their per-role results, and
// the tasks synthesized from role output, in either a global database
// (~/.local/share/rankpilot/rankpilot.db) or a project-local one
// (.rankpilot/state.db).
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// GlobalDBPath returns the path to the global RankPilot database.
func GlobalDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "rankpilot", "rankpilot.db")
}

// ProjectDBPath returns the path to the project-local database.
func ProjectDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".rankpilot", "state.db")
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// OpenGlobal opens the global RankPilot database.
func OpenGlobal() (*DB, error) {
	return Open(GlobalDBPath())
}

// OpenProject opens the project-local database.
func OpenProject(projectRoot string) (*DB, error) {
	return Open(ProjectDBPath(projectRoot))
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Runs},
		{2, migrationV2AgentResults},
		{3, migrationV3Tasks},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Runs = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	results_count INTEGER NOT NULL DEFAULT 0,
	success_count INTEGER NOT NULL DEFAULT 0,
	tasks_created INTEGER NOT NULL DEFAULT 0,
	daily_tasks_created INTEGER NOT NULL DEFAULT 0,
	has_strategic_plan INTEGER NOT NULL DEFAULT 0,
	daily_plan_days INTEGER NOT NULL DEFAULT 0,
	strategic_plan TEXT,
	daily_plan TEXT,
	started_at DATETIME NOT NULL,
	completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

const migrationV2AgentResults = `
CREATE TABLE IF NOT EXISTS agent_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	role_id TEXT NOT NULL,
	title TEXT,
	emoji TEXT,
	status TEXT NOT NULL,
	text TEXT,
	started_at DATETIME NOT NULL,
	completed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_agent_results_run_id ON agent_results(run_id);
`

const migrationV3Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	category TEXT,
	priority TEXT,
	assigned_role TEXT,
	due_date TEXT,
	success_metric TEXT,
	estimated_impact TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_run_id ON tasks(run_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// Transaction runs the given function within a transaction.
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// PurgeOldRuns deletes runs, and their results and tasks, older than the
// specified duration. Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	var count int64
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM agent_results WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("purge agent results: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM tasks WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("purge tasks: %w", err)
		}
		result, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("purge runs: %w", err)
		}
		count, err = result.RowsAffected()
		return err
	})
	return count, err
}
