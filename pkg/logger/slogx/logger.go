package slogx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Logger is a context-first facade over slog.Handler.
type Logger struct {
	h slog.Handler
}

func New(h slog.Handler) *Logger {
	return &Logger{h: h}
}

func (l *Logger) Handler() slog.Handler {
	return l.h
}

func (l *Logger) With(attrs ...slog.Attr) *Logger {
	return &Logger{h: l.h.WithAttrs(attrs)}
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelInfo, msg, attrs...)
}

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelDebug, msg, attrs...)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelWarn, msg, attrs...)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Log(ctx, slog.LevelError, msg, attrs...)
}

func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}

	slog.New(l.h).LogAttrs(ctx, level, msg, attrs...)
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("parse log level %q: %v", s, err)
	}

	return level, nil
}

func Err(err error) slog.Attr {
	return slog.Any("err", err)
}

func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

func NoteID(id string) slog.Attr {
	return slog.String("note_id", id)
}

func Time(key string, t time.Time) slog.Attr {
	return slog.Time(key, t)
}
