//go:build sqlite_fts5

package metastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/fehu/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS meta_fts USING fts5(
			id UNINDEXED,
			field_id UNINDEXED,
			key,
			value,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, fieldID, key, value string) error {
	_, _ = tx.Exec(`DELETE FROM meta_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO meta_fts (id, field_id, key, value) VALUES (?, ?, ?, ?)`,
		id, fieldID, key, value)
	if err != nil {
		return fmt.Errorf("metastore: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM meta_fts WHERE id = ?`, id)
}

// SearchMeta performs an FTS5 keyword search scoped to one field definition.
func (s *Store) SearchMeta(ctx context.Context, term, fieldID string, limit int) ([]models.ValueRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, key, value
		FROM meta_fts
		WHERE meta_fts MATCH ? AND field_id = ?
		ORDER BY rank
		LIMIT ?
	`, term, fieldID, limit)
	if err != nil {
		return nil, fmt.Errorf("metastore: search: %w", err)
	}
	defer rows.Close()

	var out []models.ValueRecord
	for rows.Next() {
		var r models.ValueRecord
		if err := rows.Scan(&r.ID, &r.Key, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
