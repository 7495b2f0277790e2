// Package memory is an in-process remote store with the same contract as the
// PostgreSQL repository. It backs local development runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

const maxBatchDelete = 25

type Repo struct {
	mu    sync.Mutex
	notes map[entity.NoteKey]entity.RemoteNote
}

func New() *Repo {
	return &Repo{notes: make(map[entity.NoteKey]entity.RemoteNote)}
}

// RunInTx runs f directly: every method of the store is atomic on its own.
func (r *Repo) RunInTx(ctx context.Context, f func(context.Context) error) error {
	return f(ctx)
}

func (r *Repo) PutNote(_ context.Context, note entity.RemoteNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := note.Key()
	if stored, ok := r.notes[key]; ok {
		if stored.UpdatedAt.After(note.UpdatedAt) {
			return nil
		}
		note.DeletedAt = stored.DeletedAt
	} else {
		note.DeletedAt = nil
	}

	note.Tags = slices.Clone(note.Tags)
	r.notes[key] = note
	return nil
}

func (r *Repo) GetNote(_ context.Context, userID, noteID string) (entity.RemoteNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[entity.NoteKey{UserID: userID, NoteID: noteID}]
	if !ok {
		return entity.RemoteNote{}, entity.ErrNoteNotFound
	}

	return clone(note), nil
}

func (r *Repo) GetNoteForUpdate(ctx context.Context, userID, noteID string) (entity.RemoteNote, error) {
	return r.GetNote(ctx, userID, noteID)
}

func (r *Repo) ListNotes(_ context.Context, userID string, f entity.NoteFilter) ([]entity.RemoteNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entity.RemoteNote
	for key, note := range r.notes {
		if key.UserID != userID || note.DeletedAt != nil {
			continue
		}
		if f.Tag != "" && !slices.Contains(note.Tags, f.Tag) {
			continue
		}
		if f.Pinned != nil && note.Pinned != *f.Pinned {
			continue
		}
		if f.Favorite != nil && note.Favorite != *f.Favorite {
			continue
		}
		out = append(out, clone(note))
	}

	slices.SortFunc(out, func(a, b entity.RemoteNote) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	return out, nil
}

func (r *Repo) SoftDeleteNote(_ context.Context, userID, noteID string, deletedAt time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entity.NoteKey{UserID: userID, NoteID: noteID}
	note, ok := r.notes[key]
	if !ok {
		return time.Time{}, entity.ErrNoteNotFound
	}

	note.DeletedAt = &deletedAt
	r.notes[key] = note
	return deletedAt, nil
}

func (r *Repo) RestoreNote(_ context.Context, userID, noteID string) (entity.RemoteNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entity.NoteKey{UserID: userID, NoteID: noteID}
	note, ok := r.notes[key]
	if !ok || note.DeletedAt == nil {
		return entity.RemoteNote{}, entity.ErrNoteNotFound
	}

	note.DeletedAt = nil
	r.notes[key] = note
	return clone(note), nil
}

func (r *Repo) ListExpired(_ context.Context, before time.Time) ([]entity.NoteKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []entity.NoteKey
	for key, note := range r.notes {
		if note.DeletedAt != nil && note.DeletedAt.Before(before) {
			keys = append(keys, key)
		}
	}

	slices.SortFunc(keys, func(a, b entity.NoteKey) int {
		if c := strings.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return strings.Compare(a.NoteID, b.NoteID)
	})

	return keys, nil
}

func (r *Repo) BatchDelete(_ context.Context, keys []entity.NoteKey, before time.Time) ([]entity.NoteKey, error) {
	if len(keys) > maxBatchDelete {
		return nil, fmt.Errorf("batch delete: %d keys exceed the limit of %d", len(keys), maxBatchDelete)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var unprocessed []entity.NoteKey
	for _, key := range keys {
		note, ok := r.notes[key]
		if !ok || note.DeletedAt == nil || !note.DeletedAt.Before(before) {
			unprocessed = append(unprocessed, key)
			continue
		}
		delete(r.notes, key)
	}

	return unprocessed, nil
}

// Len reports how many records, live or soft-deleted, the store holds.
func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.notes)
}

// clone detaches a stored record from the map so callers cannot mutate it.
func clone(note entity.RemoteNote) entity.RemoteNote {
	note.Tags = slices.Clone(note.Tags)
	if note.DeletedAt != nil {
		deletedAt := *note.DeletedAt
		note.DeletedAt = &deletedAt
	}
	return note
}
