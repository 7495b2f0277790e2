// Package localstore keeps the device copy of every note in a SQLite file.
// It never talks to the network and is the source of truth while offline.
package localstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"

	"github.com/evgeniy-krivenko/notes-sync/internal/entity"
	"github.com/evgeniy-krivenko/notes-sync/internal/localstore/migrations"
	"github.com/evgeniy-krivenko/notes-sync/pkg/database"
)

// Fixed width so that text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now as the source of local edit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the store at path and applies migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("open", err)
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(wal)")

	db, err := sqlx.Open("sqlite3", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, storageErr("open", err)
	}

	// A single writer keeps SQLite free of lock contention inside the process.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("ping", err)
	}

	if err := database.Migrate(ctx, db.DB, goose.DialectSQLite3, migrations.FS); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, op string, f func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}

	if err := f(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}

	return nil
}

func storageErr(op string, err error) error {
	return &entity.StorageError{Op: op, Err: err}
}
