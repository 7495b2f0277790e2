// Package notes exposes the remote note store over REST.
package notes

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
)

var noteIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type notesUsecase interface {
	SyncNote(ctx context.Context, userID string, note entity.Note) (time.Time, error)
	ListNotes(ctx context.Context, userID string, f entity.NoteFilter) ([]entity.RemoteNote, error)
	DeleteNote(ctx context.Context, userID, noteID string) (time.Time, error)
	RestoreNote(ctx context.Context, userID, noteID string) (entity.RemoteNote, error)
	GracePeriod() time.Duration
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=service_options.gen.go -from-struct=Options
type Options struct {
	notes notesUsecase `option:"mandatory" validate:"required"`

	maxBodyBytes int64 `default:"1048576" validate:"min=1"`
}

type Service struct {
	Options
}

func New(opts Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate notes service options: %v", err)
	}

	return &Service{Options: opts}, nil
}

// Handler returns the router serving every /notes endpoint.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/notes/sync", s.syncNote).Methods(http.MethodPost)
	r.HandleFunc("/notes", s.listNotes).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/notes/{id}", s.deleteNote).Methods(http.MethodDelete)
	r.HandleFunc("/notes/{id}/restore", s.restoreNote).Methods(http.MethodPost)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, http.StatusNotFound, "Not found")
	})

	return r
}

func noteIDFromPath(r *http.Request) (string, error) {
	id := mux.Vars(r)["id"]
	if !noteIDPattern.MatchString(id) {
		return "", entity.ErrInvalidNoteID
	}

	return id, nil
}
