//go:build !sqlite_fts5

package metastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/fehu/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on meta_records.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error {
	// Records are already stored in meta_records; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchMeta performs a LIKE-based keyword search scoped to one field
// definition (fallback when FTS5 is not compiled in).
func (s *Store) SearchMeta(ctx context.Context, term, fieldID string, limit int) ([]models.ValueRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + term + "%"
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, key, value
		FROM meta_records
		WHERE field_id = ? AND (key LIKE ? OR value LIKE ?)
		ORDER BY key
		LIMIT ?
	`, fieldID, like, like, limit)
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
