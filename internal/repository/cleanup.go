package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository/converter"
)

// ListExpired returns the keys of every note whose grace period ended before
// the given instant.
func (r *Repo) ListExpired(ctx context.Context, before time.Time) ([]entity.NoteKey, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, note_id FROM notes
		WHERE deleted_at IS NOT NULL AND deleted_at < $1
		ORDER BY user_id, note_id`,
		before,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired notes: %v", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.KeyRow])
	if err != nil {
		return nil, fmt.Errorf("list expired notes: %v", err)
	}

	return converter.ConvertKeysToEntity(keys), nil
}

// BatchDelete permanently removes up to MaxBatchDelete expired notes and
// returns the keys it did not remove. A key is left unprocessed when the note
// is gone or was restored in the meantime.
func (r *Repo) BatchDelete(ctx context.Context, keys []entity.NoteKey, before time.Time) ([]entity.NoteKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > MaxBatchDelete {
		return nil, fmt.Errorf("batch delete: %d keys exceed the limit of %d", len(keys), MaxBatchDelete)
	}

	userIDs := make([]string, 0, len(keys))
	noteIDs := make([]string, 0, len(keys))
	for _, k := range keys {
		userIDs = append(userIDs, k.UserID)
		noteIDs = append(noteIDs, k.NoteID)
	}

	rows, err := r.db.Query(ctx, `
		DELETE FROM notes n
		USING unnest($1::text[], $2::text[]) AS k(user_id, note_id)
		WHERE n.user_id = k.user_id
			AND n.note_id = k.note_id
			AND n.deleted_at IS NOT NULL
			AND n.deleted_at < $3
		RETURNING n.user_id, n.note_id`,
		userIDs, noteIDs, before,
	)
	if err != nil {
		return nil, fmt.Errorf("batch delete: %v", err)
	}

	deleted, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.KeyRow])
	if err != nil {
		return nil, fmt.Errorf("batch delete: %v", err)
	}

	done := make(map[entity.NoteKey]struct{}, len(deleted))
	for _, k := range converter.ConvertKeysToEntity(deleted) {
		done[k] = struct{}{}
	}

	var unprocessed []entity.NoteKey
	for _, k := range keys {
		if _, ok := done[k]; !ok {
			unprocessed = append(unprocessed, k)
		}
	}

	return unprocessed, nil
}
