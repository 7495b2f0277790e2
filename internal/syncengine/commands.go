package syncengine

import (
	"context"
	"fmt"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

// Command is a single user action on a note. The set is closed.
type Command interface {
	command()
}

type (
	SetContent     struct{ Content string }
	Rename         struct{ Title string }
	TogglePin      struct{}
	ToggleFavorite struct{}
	AddTag         struct{ Tag string }
	RemoveTag      struct{ Tag string }
	Delete         struct{}
)

func (SetContent) command()     {}
func (Rename) command()         {}
func (TogglePin) command()      {}
func (ToggleFavorite) command() {}
func (AddTag) command()         {}
func (RemoveTag) command()      {}
func (Delete) command()         {}

// Apply runs cmd against the device copy of note id and records the result.
// Delete returns the zero Note.
func (e *Engine) Apply(ctx context.Context, id string, cmd Command) (entity.Note, error) {
	if _, ok := cmd.(Delete); ok {
		return entity.Note{}, e.DeleteNote(ctx, id)
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	note, err := e.local.Get(ctx, id)
	if err != nil {
		return entity.Note{}, fmt.Errorf("get local note: %w", err)
	}

	switch c := cmd.(type) {
	case SetContent:
		note.Content = c.Content
	case Rename:
		note.Title = c.Title
	case TogglePin:
		note.Pinned = !note.Pinned
	case ToggleFavorite:
		note.Favorite = !note.Favorite
	case AddTag:
		note = note.WithTag(c.Tag)
	case RemoveTag:
		note = note.WithoutTag(c.Tag)
	default:
		return entity.Note{}, fmt.Errorf("unknown command %T", cmd)
	}

	if err := note.Validate(); err != nil {
		return entity.Note{}, err
	}

	return e.saveAndPush(ctx, note)
}
