// Package index builds the in-memory date index from workspace notes, keeps
// it current from file-system events, and mirrors published snapshots into
// SQLite for warm starts.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	path     TEXT PRIMARY KEY,
	date     TEXT NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date, position);

CREATE TABLE IF NOT EXISTS snapshot (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	generation INTEGER NOT NULL,
	files      INTEGER NOT NULL DEFAULT 0,
	scanned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB is the SQLite mirror of the most recent published snapshot.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
