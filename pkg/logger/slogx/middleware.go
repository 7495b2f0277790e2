package slogx

import (
	"log/slog"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// HTTPMiddleware logs the start and the outcome of every request.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := Default()

		method := slog.String("method", r.Method)
		path := slog.String("path", r.URL.Path)
		logger.Debug(ctx, "start handling http request", method, path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		durAttr := slog.Duration("duration", time.Since(start))
		statusAttr := slog.Int("status", rec.status)

		if rec.status >= http.StatusInternalServerError {
			logger.Error(ctx, "finish with error", method, path, statusAttr, durAttr)
		} else {
			logger.Info(ctx, "finish success", method, path, statusAttr, durAttr)
		}
	})
}
