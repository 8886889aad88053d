// Package metastore provides the SQLite-backed attribute metadata store:
// candidate value records per field definition, with optional FTS5
// keyword search.
package metastore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta_records (
	id       TEXT PRIMARY KEY,
	field_id TEXT NOT NULL,
	key      TEXT NOT NULL DEFAULT '',
	value    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_meta_records_field ON meta_records(field_id);
`

// Store wraps a sql.DB with metadata operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("metastore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("metastore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("metastore: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("metastore: apply fts schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
