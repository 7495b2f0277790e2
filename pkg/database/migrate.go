package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

// Migrate applies every pending goose migration found at the root of fsys.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("new migration provider: %v", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, res := range results {
		slogx.Debug(
			ctx,
			"migration applied",
			slog.String("source", res.Source.Path),
			slog.Duration("duration", res.Duration),
		)
	}

	return nil
}
