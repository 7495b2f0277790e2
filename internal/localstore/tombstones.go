package localstore

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DeleteWithTombstone removes the note row and records the intent to delete
// it remotely, atomically. The tombstone outlives restarts until cleared.
func (s *Store) DeleteWithTombstone(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete with tombstone", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
			return storageErr("delete note", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pending_deletes (id, requested_at) VALUES (?, ?)
			ON CONFLICT (id) DO NOTHING`,
			id, formatTime(s.now()),
		); err != nil {
			return storageErr("write tombstone", err)
		}

		return nil
	})
}

// PendingDeletes lists tombstoned ids, oldest request first.
func (s *Store) PendingDeletes(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM pending_deletes ORDER BY requested_at, id`); err != nil {
		return nil, storageErr("list tombstones", err)
	}

	return ids, nil
}

func (s *Store) HasPendingDelete(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM pending_deletes WHERE id = ?`, id); err != nil {
		return false, storageErr("check tombstone", err)
	}

	return n > 0, nil
}

func (s *Store) ClearPendingDelete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_deletes WHERE id = ?`, id); err != nil {
		return storageErr("clear tombstone", err)
	}

	return nil
}
