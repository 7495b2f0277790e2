package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

type notesRepository interface {
	PutNote(ctx context.Context, note entity.RemoteNote) error
	GetNoteForUpdate(ctx context.Context, userID, noteID string) (entity.RemoteNote, error)
	ListNotes(ctx context.Context, userID string, f entity.NoteFilter) ([]entity.RemoteNote, error)
	SoftDeleteNote(ctx context.Context, userID, noteID string, deletedAt time.Time) (time.Time, error)
	RestoreNote(ctx context.Context, userID, noteID string) (entity.RemoteNote, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, f func(context.Context) error) error
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=usecase_options.gen.go -from-struct=Options
type Options struct {
	repo notesRepository `option:"mandatory" validate:"required"`
	tx   txRunner        `option:"mandatory" validate:"required"`

	gracePeriod time.Duration `default:"168h"`
	clock       func() time.Time
}

type Usecase struct {
	Options
}

func New(opts Options) (*Usecase, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate notes usecase options: %v", err)
	}

	if opts.clock == nil {
		opts.clock = time.Now
	}

	return &Usecase{Options: opts}, nil
}

func (u *Usecase) now() time.Time {
	return u.clock().UTC()
}

// SyncNote stores the device copy of a note and returns the acknowledgement
// time. Writes older than the stored copy are acknowledged but not applied.
func (u *Usecase) SyncNote(ctx context.Context, userID string, note entity.Note) (time.Time, error) {
	if err := note.Validate(); err != nil {
		return time.Time{}, err
	}

	syncedAt := u.now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = syncedAt
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = syncedAt
	}

	err := u.tx.RunInTx(ctx, func(ctx context.Context) error {
		stored, err := u.repo.GetNoteForUpdate(ctx, userID, note.ID)
		switch {
		case errors.Is(err, entity.ErrNoteNotFound):
		case err != nil:
			return err
		case stored.UpdatedAt.After(note.UpdatedAt):
			slogx.Info(ctx, "skip stale note write",
				slogx.UserID(userID),
				slogx.NoteID(note.ID),
			)
			return nil
		}

		return u.repo.PutNote(ctx, entity.NewRemoteNote(userID, note, syncedAt))
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("usecase sync note: %w", err)
	}

	slogx.Debug(ctx, "success to sync note", slogx.UserID(userID), slogx.NoteID(note.ID))
	return syncedAt, nil
}

func (u *Usecase) ListNotes(ctx context.Context, userID string, f entity.NoteFilter) ([]entity.RemoteNote, error) {
	notes, err := u.repo.ListNotes(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("usecase list notes: %w", err)
	}

	return notes, nil
}

// DeleteNote soft-deletes the note; it is purged once the grace period ends.
func (u *Usecase) DeleteNote(ctx context.Context, userID, noteID string) (time.Time, error) {
	deletedAt, err := u.repo.SoftDeleteNote(ctx, userID, noteID, u.now().Add(u.gracePeriod))
	if err != nil {
		return time.Time{}, fmt.Errorf("usecase delete note: %w", err)
	}

	slogx.Info(ctx, "note marked for deletion",
		slogx.UserID(userID),
		slogx.NoteID(noteID),
		slogx.Time("deleted_at", deletedAt),
	)
	return deletedAt, nil
}

func (u *Usecase) RestoreNote(ctx context.Context, userID, noteID string) (entity.RemoteNote, error) {
	note, err := u.repo.RestoreNote(ctx, userID, noteID)
	if err != nil {
		return entity.RemoteNote{}, fmt.Errorf("usecase restore note: %w", err)
	}

	slogx.Info(ctx, "note restored", slogx.UserID(userID), slogx.NoteID(noteID))
	return note, nil
}

// GracePeriod is the delay between a soft delete and eligibility for purge.
func (u *Usecase) GracePeriod() time.Duration {
	return u.gracePeriod
}
