package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

type noteRow struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	Content   string `db:"content"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
	Pinned    bool   `db:"pinned"`
	Favorite  bool   `db:"favorite"`
	Tags      string `db:"tags"`
	Synced    bool   `db:"synced"`
}

const selectNotes = `SELECT id, title, content, created_at, updated_at, pinned, favorite, tags, synced FROM notes`

const upsertNote = `
	INSERT INTO notes (id, title, content, created_at, updated_at, pinned, favorite, tags, synced)
	VALUES (:id, :title, :content, :created_at, :updated_at, :pinned, :favorite, :tags, :synced)
	ON CONFLICT (id) DO UPDATE SET
		title      = excluded.title,
		content    = excluded.content,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		pinned     = excluded.pinned,
		favorite   = excluded.favorite,
		tags       = excluded.tags,
		synced     = excluded.synced`

func toRow(n entity.Note) (noteRow, error) {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	raw, err := json.Marshal(tags)
	if err != nil {
		return noteRow{}, fmt.Errorf("encode tags: %v", err)
	}

	return noteRow{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: formatTime(n.CreatedAt),
		UpdatedAt: formatTime(n.UpdatedAt),
		Pinned:    n.Pinned,
		Favorite:  n.Favorite,
		Tags:      string(raw),
		Synced:    n.Synced,
	}, nil
}

func (r noteRow) toEntity() (entity.Note, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return entity.Note{}, fmt.Errorf("decode created_at of %s: %v", r.ID, err)
	}

	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return entity.Note{}, fmt.Errorf("decode updated_at of %s: %v", r.ID, err)
	}

	tags := []string{}
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return entity.Note{}, fmt.Errorf("decode tags of %s: %v", r.ID, err)
	}

	return entity.Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Pinned:    r.Pinned,
		Favorite:  r.Favorite,
		Tags:      tags,
		Synced:    r.Synced,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func rowsToEntities(rows []noteRow) ([]entity.Note, error) {
	notes := make([]entity.Note, 0, len(rows))
	for _, row := range rows {
		n, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	return notes, nil
}

// GetAll returns every note on the device in no particular order.
func (s *Store) GetAll(ctx context.Context) ([]entity.Note, error) {
	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, selectNotes); err != nil {
		return nil, storageErr("get all notes", err)
	}

	notes, err := rowsToEntities(rows)
	if err != nil {
		return nil, storageErr("get all notes", err)
	}

	return notes, nil
}

func (s *Store) Get(ctx context.Context, id string) (entity.Note, error) {
	return get(ctx, s.db, id)
}

func get(ctx context.Context, q sqlx.QueryerContext, id string) (entity.Note, error) {
	var row noteRow
	if err := sqlx.GetContext(ctx, q, &row, selectNotes+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Note{}, entity.ErrNoteNotFound
		}
		return entity.Note{}, storageErr("get note", err)
	}

	n, err := row.toEntity()
	if err != nil {
		return entity.Note{}, storageErr("get note", err)
	}

	return n, nil
}

// RecordLocalEdit stores a change made on this device. It stamps UpdatedAt
// with the current time, never moving it backwards, and clears Synced.
func (s *Store) RecordLocalEdit(ctx context.Context, n entity.Note) (entity.Note, error) {
	err := s.inTx(ctx, "record local edit", func(tx *sqlx.Tx) error {
		now := s.now().UTC()

		stored, err := get(ctx, tx, n.ID)
		switch {
		case errors.Is(err, entity.ErrNoteNotFound):
			if n.CreatedAt.IsZero() {
				n.CreatedAt = now
			}
		case err != nil:
			return err
		default:
			n.CreatedAt = stored.CreatedAt
			if stored.UpdatedAt.After(now) {
				now = stored.UpdatedAt
			}
		}

		n.UpdatedAt = now
		n.Synced = false
		n.DeletedAt = nil

		return upsert(ctx, tx, n)
	})
	if err != nil {
		return entity.Note{}, err
	}

	if n.Tags == nil {
		n.Tags = []string{}
	}

	return n, nil
}

// ImportRemoteCopy stores a copy acknowledged by the remote store exactly as
// given and marks it synced.
func (s *Store) ImportRemoteCopy(ctx context.Context, n entity.Note) error {
	n.Synced = true
	n.DeletedAt = nil

	return s.inTx(ctx, "import remote copy", func(tx *sqlx.Tx) error {
		return upsert(ctx, tx, n)
	})
}

func upsert(ctx context.Context, tx *sqlx.Tx, n entity.Note) error {
	row, err := toRow(n)
	if err != nil {
		return storageErr("save note", err)
	}

	if _, err := tx.NamedExecContext(ctx, upsertNote, row); err != nil {
		return storageErr("save note", err)
	}

	return nil
}

// Delete removes the note row for good. Deleting a missing note is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return storageErr("delete note", err)
	}

	return nil
}

// MarkSynced flags the note as acknowledged without touching other fields.
func (s *Store) MarkSynced(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notes SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return storageErr("mark synced", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("mark synced", err)
	}
	if affected == 0 {
		return entity.ErrNoteNotFound
	}

	return nil
}

func (s *Store) GetUnsynced(ctx context.Context) ([]entity.Note, error) {
	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, selectNotes+` WHERE synced = 0 ORDER BY updated_at`); err != nil {
		return nil, storageErr("get unsynced notes", err)
	}

	notes, err := rowsToEntities(rows)
	if err != nil {
		return nil, storageErr("get unsynced notes", err)
	}

	return notes, nil
}
