package converter

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

// NoteRow mirrors a row of the notes table.
type NoteRow struct {
	UserID     string             `db:"user_id"`
	NoteID     string             `db:"note_id"`
	Title      string             `db:"title"`
	Content    string             `db:"content"`
	Tags       []string           `db:"tags"`
	Pinned     bool               `db:"pinned"`
	Favorite   bool               `db:"favorite"`
	CreatedAt  pgtype.Timestamptz `db:"created_at"`
	UpdatedAt  pgtype.Timestamptz `db:"updated_at"`
	LastSynced pgtype.Timestamptz `db:"last_synced"`
	DeletedAt  pgtype.Timestamptz `db:"deleted_at"`
}

// KeyRow mirrors the (user_id, note_id) primary key.
type KeyRow struct {
	UserID string `db:"user_id"`
	NoteID string `db:"note_id"`
}

func ConvertNoteToEntity(row NoteRow) entity.RemoteNote {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}

	return entity.RemoteNote{
		UserID:     row.UserID,
		NoteID:     row.NoteID,
		Title:      row.Title,
		Content:    row.Content,
		Tags:       tags,
		Pinned:     row.Pinned,
		Favorite:   row.Favorite,
		CreatedAt:  ConvertTimestamptzToTime(row.CreatedAt),
		UpdatedAt:  ConvertTimestamptzToTime(row.UpdatedAt),
		LastSynced: ConvertTimestamptzToTime(row.LastSynced),
		DeletedAt:  ConvertTimestamptzToTimePtr(row.DeletedAt),
	}
}

func ConvertNotesToEntity(rows []NoteRow) []entity.RemoteNote {
	notes := make([]entity.RemoteNote, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, ConvertNoteToEntity(row))
	}

	return notes
}

func ConvertKeysToEntity(rows []KeyRow) []entity.NoteKey {
	keys := make([]entity.NoteKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, entity.NoteKey(row))
	}

	return keys
}

func ConvertTimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}

	return t.Time.UTC()
}

func ConvertTimestamptzToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time.UTC()
	return &v
}

func ConvertTimeToTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
