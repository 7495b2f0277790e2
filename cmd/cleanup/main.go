// Command cleanup permanently deletes notes whose deletion grace period has
// ended. It runs once per invocation and prints a JSON summary on stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/evgeniy-krivenko/notes-sync/internal/config"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository"
	"github.com/evgeniy-krivenko/notes-sync/internal/usecase/cleanup"
	"github.com/evgeniy-krivenko/notes-sync/pkg/database"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

type failure struct {
	Error string `json:"error"`
}

func main() {
	os.Exit(run(os.Stdout))
}

func run(out io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := purge(ctx, out); err != nil {
		slogx.Error(ctx, "cleanup failed", slogx.Err(err))
		writeJSON(out, failure{Error: "Cleanup failed"})
		return 1
	}

	return 0
}

func purge(ctx context.Context, out io.Writer) error {
	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("parse cfg: %v", err)
	}

	// Logs go to stderr, stdout carries only the summary.
	if err := slogx.InitGlobal(os.Stderr, cfg.App.LogLevel, cfg.App.Pretty); err != nil {
		return fmt.Errorf("init logger: %v", err)
	}

	pool, err := database.NewPGX(ctx, database.NewOptions(
		net.JoinHostPort(cfg.Database.Host, cfg.Database.Port),
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		database.WithRetryAttempts(cfg.Database.RetryAttempts),
		database.WithLogger(slogx.Default()),
	))
	if err != nil {
		return fmt.Errorf("connect to database: %v", err)
	}
	db := database.NewDatabase(pool)
	defer db.Close()

	uc, err := cleanup.New(cleanup.NewOptions(
		repository.New(db),
		cleanup.WithBatchSize(cfg.Cleanup.BatchSize),
		cleanup.WithMaxAttempts(cfg.Cleanup.MaxAttempts),
		cleanup.WithBaseDelay(cfg.Cleanup.BaseDelay),
	))
	if err != nil {
		return fmt.Errorf("init cleanup usecase: %v", err)
	}

	result, err := uc.PurgeExpired(ctx)
	if err != nil {
		return err
	}

	writeJSON(out, result)
	return nil
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
