package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with lingtutor-specific helpers.
type DB struct {
	*sql.DB
	mu   sync.RWMutex
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lessons (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    context TEXT NOT NULL DEFAULT '',
    stated_intent TEXT NOT NULL DEFAULT '',
    interpreted_intent TEXT NOT NULL DEFAULT '',
    user_confirmed INTEGER,
    user_clarification TEXT NOT NULL DEFAULT '',
    clarification_applied INTEGER NOT NULL DEFAULT 0,
    corrected TEXT NOT NULL DEFAULT '',
    corrected_notes TEXT NOT NULL DEFAULT '',
    alternative1 TEXT NOT NULL DEFAULT '',
    alternative1_notes TEXT NOT NULL DEFAULT '',
    alternative2 TEXT NOT NULL DEFAULT '',
    alternative2_notes TEXT NOT NULL DEFAULT '',
    rating INTEGER CHECK(rating BETWEEN 1 AND 5),
    status TEXT NOT NULL DEFAULT 'in_progress' CHECK(status IN ('in_progress','final')),
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lessons_user ON lessons(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_lessons_status ON lessons(status);
`
