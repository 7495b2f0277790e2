package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository/converter"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

const noteColumns = `user_id, note_id, title, content, tags, pinned, favorite,
	created_at, updated_at, last_synced, deleted_at`

// PutNote upserts the note. A stored row with a newer updated_at is left as
// is, and deleted_at is never touched here.
func (r *Repo) PutNote(ctx context.Context, note entity.RemoteNote) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO notes (user_id, note_id, title, content, tags, pinned, favorite,
			created_at, updated_at, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, note_id) DO UPDATE SET
			title       = EXCLUDED.title,
			content     = EXCLUDED.content,
			tags        = EXCLUDED.tags,
			pinned      = EXCLUDED.pinned,
			favorite    = EXCLUDED.favorite,
			created_at  = EXCLUDED.created_at,
			updated_at  = EXCLUDED.updated_at,
			last_synced = EXCLUDED.last_synced
		WHERE notes.updated_at <= EXCLUDED.updated_at`,
		note.UserID,
		note.NoteID,
		note.Title,
		note.Content,
		note.Tags,
		note.Pinned,
		note.Favorite,
		converter.ConvertTimeToTimestamptz(note.CreatedAt),
		converter.ConvertTimeToTimestamptz(note.UpdatedAt),
		converter.ConvertTimeToTimestamptz(note.LastSynced),
	)
	if err != nil {
		return fmt.Errorf("put note: %v", err)
	}

	if tag.RowsAffected() == 0 {
		slogx.Debug(ctx, "stale note write ignored", slogx.UserID(note.UserID), slogx.NoteID(note.NoteID))
	}

	return nil
}

// GetNote returns the note in any state, soft-deleted included.
func (r *Repo) GetNote(ctx context.Context, userID, noteID string) (entity.RemoteNote, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 AND note_id = $2`,
		userID, noteID,
	)
	if err != nil {
		return entity.RemoteNote{}, fmt.Errorf("get note: %v", err)
	}

	return collectOne(rows, "get note")
}

// GetNoteForUpdate is GetNote holding a row lock until the surrounding
// transaction ends.
func (r *Repo) GetNoteForUpdate(ctx context.Context, userID, noteID string) (entity.RemoteNote, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 AND note_id = $2 FOR UPDATE`,
		userID, noteID,
	)
	if err != nil {
		return entity.RemoteNote{}, fmt.Errorf("get note for update: %v", err)
	}

	return collectOne(rows, "get note for update")
}

func (r *Repo) ListNotes(ctx context.Context, userID string, f entity.NoteFilter) ([]entity.RemoteNote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = $1
			AND deleted_at IS NULL
			AND ($2 = '' OR $2 = ANY(tags))
			AND ($3::boolean IS NULL OR pinned = $3)
			AND ($4::boolean IS NULL OR favorite = $4)
		ORDER BY updated_at DESC`,
		userID, f.Tag, f.Pinned, f.Favorite,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %v", err)
	}

	noteRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.NoteRow])
	if err != nil {
		return nil, fmt.Errorf("list notes: %v", err)
	}

	return converter.ConvertNotesToEntity(noteRows), nil
}

func (r *Repo) SoftDeleteNote(ctx context.Context, userID, noteID string, deletedAt time.Time) (time.Time, error) {
	var stamped time.Time

	err := r.db.QueryRow(ctx, `
		UPDATE notes SET deleted_at = $3
		WHERE user_id = $1 AND note_id = $2
		RETURNING deleted_at`,
		userID, noteID, deletedAt,
	).Scan(&stamped)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, entity.ErrNoteNotFound
		}
		return time.Time{}, fmt.Errorf("soft delete note: %v", err)
	}

	slogx.Debug(ctx, "note marked for deletion", slogx.UserID(userID), slogx.NoteID(noteID))

	return stamped.UTC(), nil
}

// RestoreNote clears deleted_at. A missing or live note is ErrNoteNotFound.
func (r *Repo) RestoreNote(ctx context.Context, userID, noteID string) (entity.RemoteNote, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE notes SET deleted_at = NULL
		WHERE user_id = $1 AND note_id = $2 AND deleted_at IS NOT NULL
		RETURNING `+noteColumns,
		userID, noteID,
	)
	if err != nil {
		return entity.RemoteNote{}, fmt.Errorf("restore note: %v", err)
	}

	return collectOne(rows, "restore note")
}

func collectOne(rows pgx.Rows, op string) (entity.RemoteNote, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.NoteRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.RemoteNote{}, entity.ErrNoteNotFound
		}
		return entity.RemoteNote{}, fmt.Errorf("%s: %v", op, err)
	}

	return converter.ConvertNoteToEntity(row), nil
}
