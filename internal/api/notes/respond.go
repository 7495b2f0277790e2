package notes

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slogx.Warn(ctx, "write response body", slogx.Err(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}
