// Package entitystore provides the SQLite-backed host entity store. Each
// entity row carries a class tag and a generic data column holding the
// serialized attribute document.
package entitystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/fehu/internal/apperr"
	"github.com/starford/fehu/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
	id         TEXT PRIMARY KEY,
	class      TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entities_class ON entities(class);
`

// Entity is one host entity row.
type Entity struct {
	ID        string
	Class     models.Target
	Title     string
	Data      []byte
	UpdatedAt time.Time
}

// Store wraps a sql.DB with entity operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("entitystore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("entitystore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("entitystore: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Create inserts a new entity with a generated id and empty data.
func (s *Store) Create(ctx context.Context, class models.Target, title string) (Entity, error) {
	e := Entity{
		ID:        uuid.NewString(),
		Class:     class,
		Title:     title,
		Data:      []byte{},
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO entities (id, class, title, data, updated_at) VALUES (?, ?, ?, ?, ?)
	`, e.ID, string(e.Class), e.Title, string(e.Data), e.UpdatedAt)
	if err != nil {
		return Entity{}, fmt.Errorf("entitystore: create: %w", err)
	}
	return e, nil
}

// Get returns one entity by id.
func (s *Store) Get(ctx context.Context, id string) (Entity, error) {
	var e Entity
	var class, data string
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, class, title, data, updated_at FROM entities WHERE id = ?
	`, id).Scan(&e.ID, &class, &e.Title, &data, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entity{}, fmt.Errorf("%w: entity %q", apperr.ErrNotFound, id)
	}
	if err != nil {
		return Entity{}, fmt.Errorf("entitystore: get: %w", err)
	}
	e.Class = models.Target(class)
	e.Data = []byte(data)
	return e, nil
}

// List returns entities of a class, newest first, with the total count.
func (s *Store) List(ctx context.Context, class models.Target, limit, offset int) ([]Entity, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entities WHERE class = ?
	`, string(class)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("entitystore: count: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, class, title, data, updated_at
		FROM entities
		WHERE class = ?
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?
	`, string(class), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("entitystore: list: %w", err)
	}
	defer rows.Close()

	out := []Entity{}
	for rows.Next() {
		var e Entity
		var cls, data string
		if err := rows.Scan(&e.ID, &cls, &e.Title, &data, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		e.Class = models.Target(cls)
		e.Data = []byte(data)
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// UpdateData overwrites the entity's data column wholesale. This is the
// persistence call behind the session save gate; each save fully replaces
// the prior value, there is no versioning.
func (s *Store) UpdateData(ctx context.Context, id string, data []byte) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE entities SET data = ?, updated_at = ? WHERE id = ?
	`, string(data), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("entitystore: update data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("entitystore: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: entity %q", apperr.ErrNotFound, id)
	}
	return nil
}

// Delete removes an entity row.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("entitystore: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: entity %q", apperr.ErrNotFound, id)
	}
	return nil
}
