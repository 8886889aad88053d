package metastore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/fehu/internal/models"
)

// Put inserts or replaces a value record owned by fieldID. An empty record
// id is generated.
func (s *Store) Put(ctx context.Context, fieldID string, rec models.ValueRecord) (models.ValueRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.ValueRecord{}, fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO meta_records (id, field_id, key, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			field_id = excluded.field_id,
			key      = excluded.key,
			value    = excluded.value
	`, rec.ID, fieldID, rec.Key, rec.Value)
	if err != nil {
		return models.ValueRecord{}, fmt.Errorf("metastore: upsert record: %w", err)
	}
	if err := ftsUpsert(tx, rec.ID, fieldID, rec.Key, rec.Value); err != nil {
		return models.ValueRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.ValueRecord{}, fmt.Errorf("metastore: commit: %w", err)
	}
	return rec, nil
}

// Delete removes a record and its FTS entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metastore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM meta_records WHERE id = ?`, id)

	return tx.Commit()
}

// ListByField returns every record owned by a field definition, ordered by
// key.
func (s *Store) ListByField(ctx context.Context, fieldID string) ([]models.ValueRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, key, value FROM meta_records WHERE field_id = ? ORDER BY key
	`, fieldID)
	if err != nil {
		return nil, fmt.Errorf("metastore: list by field: %w", err)
	}
	defer rows.Close()

	out := []models.ValueRecord{}
	for rows.Next() {
		var r models.ValueRecord
		if err := rows.Scan(&r.ID, &r.Key, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
