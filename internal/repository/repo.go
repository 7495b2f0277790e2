package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/evgeniy-krivenko/notes-sync/internal/repository/migrations"
	"github.com/evgeniy-krivenko/notes-sync/pkg/database"
)

// MaxBatchDelete is the largest key set BatchDelete accepts in one call.
const MaxBatchDelete = 25

type Repo struct {
	db database.Tx
}

func New(db database.Tx) *Repo {
	return &Repo{db: db}
}

// Migrate brings the notes schema up to date.
func Migrate(ctx context.Context, db *database.Database) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool())
	defer sqlDB.Close()

	if err := database.Migrate(ctx, sqlDB, goose.DialectPostgres, migrations.FS); err != nil {
		return fmt.Errorf("migrate notes schema: %v", err)
	}

	return nil
}
