// Package syncengine keeps the device copy of the notes in step with the
// remote store. Local writes always land first; the network is best effort.
//
// Merging is last write wins on UpdatedAt. Clocks of different devices are
// trusted as they are, so skew between them can make an older edit win.
package syncengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

type localStore interface {
	GetAll(ctx context.Context) ([]entity.Note, error)
	Get(ctx context.Context, id string) (entity.Note, error)
	RecordLocalEdit(ctx context.Context, n entity.Note) (entity.Note, error)
	ImportRemoteCopy(ctx context.Context, n entity.Note) error
	DeleteWithTombstone(ctx context.Context, id string) error
	MarkSynced(ctx context.Context, id string) error
	GetUnsynced(ctx context.Context) ([]entity.Note, error)
	PendingDeletes(ctx context.Context) ([]string, error)
	HasPendingDelete(ctx context.Context, id string) (bool, error)
	ClearPendingDelete(ctx context.Context, id string) error
}

type remoteStore interface {
	Put(ctx context.Context, n entity.Note) (time.Time, error)
	List(ctx context.Context, f entity.NoteFilter) ([]entity.Note, error)
	SoftDelete(ctx context.Context, id string) (time.Time, error)
	Restore(ctx context.Context, id string) (entity.Note, error)
}

type connectivity interface {
	Online() bool
	Subscribe(ctx context.Context) <-chan bool
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=engine_options.gen.go -from-struct=Options
type Options struct {
	local  localStore   `option:"mandatory" validate:"required"`
	remote remoteStore  `option:"mandatory" validate:"required"`
	conn   connectivity `option:"mandatory" validate:"required"`

	clock func() time.Time
}

type Engine struct {
	Options

	locks  *keyedMutex
	status *statusTracker

	// Serializes whole reconnect passes; per-note locks guard the rest.
	reconcileMu sync.Mutex
}

func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate sync engine options: %v", err)
	}

	if opts.clock == nil {
		opts.clock = time.Now
	}

	initial := StatusOffline
	if opts.conn.Online() {
		initial = StatusOnline
	}

	return &Engine{
		Options: opts,
		locks:   newKeyedMutex(),
		status:  newStatusTracker(initial),
	}, nil
}

func (e *Engine) Status() Status {
	return e.status.Get(e.conn.Online())
}

// SubscribeStatus streams status changes until ctx is done.
func (e *Engine) SubscribeStatus(ctx context.Context) <-chan Status {
	return e.status.Subscribe(ctx)
}

// beginRemote marks a remote call in flight. The returned func ends it.
func (e *Engine) beginRemote() func() {
	e.status.Begin()
	return func() { e.status.End(e.conn.Online()) }
}
