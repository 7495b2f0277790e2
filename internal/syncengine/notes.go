package syncengine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

// OnNoteChanged stores the edit locally and, when online, pushes it right
// away. Only local failures and invalid notes are returned; a failed push
// leaves the note unsynced for the next reconnect.
func (e *Engine) OnNoteChanged(ctx context.Context, note entity.Note) (entity.Note, error) {
	if err := note.Validate(); err != nil {
		return entity.Note{}, err
	}

	unlock := e.locks.Lock(note.ID)
	defer unlock()

	return e.saveAndPush(ctx, note)
}

// saveAndPush expects the lock of note.ID to be held.
func (e *Engine) saveAndPush(ctx context.Context, note entity.Note) (entity.Note, error) {
	saved, err := e.local.RecordLocalEdit(ctx, note)
	if err != nil {
		return entity.Note{}, fmt.Errorf("save note locally: %w", err)
	}

	if !e.conn.Online() {
		return saved, nil
	}

	result, err := e.push(ctx, saved)
	if err != nil {
		return entity.Note{}, err
	}

	saved.Synced = result == pushDone
	return saved, nil
}

type pushResult int

const (
	pushDone pushResult = iota
	// pushFailed means the remote store was unreachable; retried later.
	pushFailed
	// pushRejected means the remote store refused the note as invalid.
	pushRejected
)

// push uploads note and marks it synced. Only storage failures are errors;
// a note the remote store did not take stays unsynced.
func (e *Engine) push(ctx context.Context, note entity.Note) (pushResult, error) {
	end := e.beginRemote()
	_, err := e.remote.Put(ctx, note)
	end()

	switch {
	case err == nil:
	case entity.IsValidation(err):
		slogx.Error(ctx, "remote store rejected note", slogx.NoteID(note.ID), slogx.Err(err))
		return pushRejected, nil
	default:
		slogx.Warn(ctx, "push note", slogx.NoteID(note.ID), slogx.Err(err))
		return pushFailed, nil
	}

	if err := e.local.MarkSynced(ctx, note.ID); err != nil {
		return pushFailed, fmt.Errorf("mark note synced: %w", err)
	}

	return pushDone, nil
}

// CreateNote makes an empty note with a dated title and records it.
func (e *Engine) CreateNote(ctx context.Context) (entity.Note, error) {
	return e.OnNoteChanged(ctx, entity.NewNote(e.clock()))
}

// DeleteNote removes the note from the device and leaves a tombstone that
// is drained once the remote store confirms the soft delete.
func (e *Engine) DeleteNote(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	if err := e.local.DeleteWithTombstone(ctx, id); err != nil {
		return fmt.Errorf("delete note locally: %w", err)
	}

	if !e.conn.Online() {
		slogx.Debug(ctx, "queue note deletion while offline", slogx.NoteID(id))
		return nil
	}

	_, err := e.flushDelete(ctx, id)
	return err
}

// flushDelete expects the lock of id to be held. It reports whether the
// tombstone was cleared.
func (e *Engine) flushDelete(ctx context.Context, id string) (bool, error) {
	end := e.beginRemote()
	_, err := e.remote.SoftDelete(ctx, id)
	end()

	var validation error
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrNoteNotFound):
		// Never reached the remote store, nothing to delete there.
	case entity.IsValidation(err):
		validation = err
	default:
		slogx.Warn(ctx, "delete note remotely", slogx.NoteID(id), slogx.Err(err))
		return false, nil
	}

	if err := e.local.ClearPendingDelete(ctx, id); err != nil {
		return false, fmt.Errorf("clear tombstone: %w", err)
	}

	return true, validation
}

// RestoreNote undoes a remote soft delete and brings the note back onto the
// device. It needs the remote store, so it fails with ErrOffline offline.
func (e *Engine) RestoreNote(ctx context.Context, id string) (entity.Note, error) {
	if !e.conn.Online() {
		return entity.Note{}, entity.ErrOffline
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	end := e.beginRemote()
	note, err := e.remote.Restore(ctx, id)
	end()
	if err != nil {
		return entity.Note{}, fmt.Errorf("restore note: %w", err)
	}

	note.DeletedAt = nil
	if err := e.local.ImportRemoteCopy(ctx, note); err != nil {
		return entity.Note{}, fmt.Errorf("import restored note: %w", err)
	}

	note.Synced = true
	return note, nil
}

// ListNotes returns the device copy for display: pinned first, newest first.
// A non-empty search keeps only notes whose title contains it, ignoring case.
func (e *Engine) ListNotes(ctx context.Context, search string) ([]entity.Note, error) {
	notes, err := e.local.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list local notes: %w", err)
	}

	notes = slices.DeleteFunc(notes, func(n entity.Note) bool { return !n.MatchesTitle(search) })

	entity.SortForDisplay(notes)
	return notes, nil
}

func (e *Engine) GetNote(ctx context.Context, id string) (entity.Note, error) {
	note, err := e.local.Get(ctx, id)
	if err != nil {
		return entity.Note{}, fmt.Errorf("get local note: %w", err)
	}

	return note, nil
}
