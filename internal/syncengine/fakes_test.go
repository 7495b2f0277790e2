package syncengine_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

var errUnreachable = errors.New("connection refused")

// fakeRemote mimics the remote store contract in memory.
type fakeRemote struct {
	mu      sync.Mutex
	notes   map[string]entity.Note
	down    bool
	puts    int
	deletes int
	// block, when set, is waited on by Put before it stores anything.
	block chan struct{}
	// reject lists ids Put refuses as invalid.
	reject map[string]bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{notes: make(map[string]entity.Note)}
}

func (r *fakeRemote) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.down = down
}

func (r *fakeRemote) seed(n entity.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.Synced = true
	r.notes[n.ID] = n
}

func (r *fakeRemote) get(id string) (entity.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	return n, ok
}

func (r *fakeRemote) Put(_ context.Context, n entity.Note) (time.Time, error) {
	r.mu.Lock()
	block := r.block
	r.mu.Unlock()

	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.down {
		return time.Time{}, &entity.TransientNetworkError{Op: "put note", Err: errUnreachable}
	}

	if r.reject[n.ID] {
		return time.Time{}, &entity.ValidationError{Msg: "Missing required fields: id and title"}
	}

	r.puts++
	stored, ok := r.notes[n.ID]
	if ok && stored.UpdatedAt.After(n.UpdatedAt) {
		return time.Now(), nil
	}

	n.Synced = true
	n.Tags = slices.Clone(n.Tags)
	if ok {
		n.DeletedAt = stored.DeletedAt
	}
	r.notes[n.ID] = n

	return time.Now(), nil
}

func (r *fakeRemote) List(_ context.Context, _ entity.NoteFilter) ([]entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.down {
		return nil, &entity.TransientNetworkError{Op: "list notes", Err: errUnreachable}
	}

	var out []entity.Note
	for _, n := range r.notes {
		if n.DeletedAt == nil {
			out = append(out, n)
		}
	}

	return out, nil
}

func (r *fakeRemote) SoftDelete(_ context.Context, id string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.down {
		return time.Time{}, &entity.TransientNetworkError{Op: "delete note", Err: errUnreachable}
	}

	r.deletes++
	n, ok := r.notes[id]
	if !ok {
		return time.Time{}, entity.ErrNoteNotFound
	}

	deletedAt := time.Now().Add(7 * 24 * time.Hour)
	n.DeletedAt = &deletedAt
	r.notes[id] = n

	return deletedAt, nil
}

func (r *fakeRemote) Restore(_ context.Context, id string) (entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.down {
		return entity.Note{}, &entity.TransientNetworkError{Op: "restore note", Err: errUnreachable}
	}

	n, ok := r.notes[id]
	if !ok || n.DeletedAt == nil {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	n.DeletedAt = nil
	r.notes[id] = n

	return n, nil
}
