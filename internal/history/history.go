// Package history records dashboard analysis runs in SQLite and watches the
// dashboard directory for changes.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id                   TEXT PRIMARY KEY,
	path                 TEXT NOT NULL,
	name                 TEXT NOT NULL DEFAULT '',
	checksum             TEXT NOT NULL DEFAULT '',
	total_filters        INTEGER NOT NULL DEFAULT 0,
	total_visualizations INTEGER NOT NULL DEFAULT 0,
	complete_links       INTEGER NOT NULL DEFAULT 0,
	partial_links        INTEGER NOT NULL DEFAULT 0,
	missing_links        INTEGER NOT NULL DEFAULT 0,
	avg_coverage         REAL NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(path, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Store persists analysis run summaries.
type Store interface {
	RecordRun(r Run) (Run, error)
	ListRuns(limit int) ([]Run, error)
	LatestByPath(path string) (*Run, error)
	Close() error
}

// DB is the SQLite-backed Store.
type DB struct {
	conn *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
