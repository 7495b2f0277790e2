package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/internal/ctxtr"
	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

const (
	msgNotFound         = "Note not found"
	msgNotFoundOrActive = "Note not found or not marked for deletion"
	msgRestored         = "Note restored successfully."
	msgInvalidBody      = "Invalid request body"
	msgDeletedWithin    = "Note marked for deletion. It will be permanently deleted in %d days."
	hoursPerDay         = 24
)

type syncResponse struct {
	Success  bool      `json:"success"`
	SyncedAt time.Time `json:"syncedAt"`
}

type deleteResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	DeletedAt time.Time `json:"deletedAt"`
}

type restoreResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Note    entity.RemoteNote `json:"note"`
}

func (s *Service) syncNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := ctxtr.UserID(ctx)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	var note entity.Note
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&note); err != nil {
		slogx.Debug(ctx, "decode sync request", slogx.Err(err))
		writeError(ctx, w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	syncedAt, err := s.notes.SyncNote(ctx, userID, note)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	writeJSON(ctx, w, http.StatusOK, syncResponse{Success: true, SyncedAt: syncedAt})
}

func (s *Service) listNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := ctxtr.UserID(ctx)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	notes, err := s.notes.ListNotes(ctx, userID, parseFilter(r))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	if notes == nil {
		notes = []entity.RemoteNote{}
	}

	writeJSON(ctx, w, http.StatusOK, notes)
}

func (s *Service) deleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := ctxtr.UserID(ctx)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	noteID, err := noteIDFromPath(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	deletedAt, err := s.notes.DeleteNote(ctx, userID, noteID)
	if err != nil {
		s.fail(w, r, err, msgNotFound)
		return
	}

	days := int(s.notes.GracePeriod().Hours()) / hoursPerDay
	writeJSON(ctx, w, http.StatusOK, deleteResponse{
		Success:   true,
		Message:   fmt.Sprintf(msgDeletedWithin, days),
		DeletedAt: deletedAt,
	})
}

func (s *Service) restoreNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := ctxtr.UserID(ctx)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	noteID, err := noteIDFromPath(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	note, err := s.notes.RestoreNote(ctx, userID, noteID)
	if err != nil {
		s.fail(w, r, err, msgNotFoundOrActive)
		return
	}

	writeJSON(ctx, w, http.StatusOK, restoreResponse{Success: true, Message: msgRestored, Note: note})
}

// fail maps err to a status. notFoundMsg is the body used for ErrNoteNotFound.
func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	ctx := r.Context()

	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(ctx, w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, entity.ErrNoteNotFound) && notFoundMsg != "":
		writeError(ctx, w, http.StatusNotFound, notFoundMsg)
	default:
		slogx.Error(ctx, "handle notes request", slogx.Err(err),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		writeError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseFilter reads optional filters; a present boolean is true only when
// its value is exactly "true".
func parseFilter(r *http.Request) entity.NoteFilter {
	q := r.URL.Query()

	f := entity.NoteFilter{Tag: q.Get("tag")}
	if q.Has("pinned") {
		v := q.Get("pinned") == "true"
		f.Pinned = &v
	}
	if q.Has("favorite") {
		v := q.Get("favorite") == "true"
		f.Favorite = &v
	}

	return f
}
