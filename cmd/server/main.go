package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	apinotes "github.com/evgeniy-krivenko/notes-sync/internal/api/notes"
	"github.com/evgeniy-krivenko/notes-sync/internal/config"
	"github.com/evgeniy-krivenko/notes-sync/internal/ctxtr"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository"
	"github.com/evgeniy-krivenko/notes-sync/internal/repository/memory"
	notesuc "github.com/evgeniy-krivenko/notes-sync/internal/usecase/notes"
	"github.com/evgeniy-krivenko/notes-sync/pkg/database"
	"github.com/evgeniy-krivenko/notes-sync/pkg/gwserver"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("parse cfg: %v", err)
	}

	if err := slogx.InitGlobal(os.Stdout, cfg.App.LogLevel, cfg.App.Pretty); err != nil {
		return fmt.Errorf("init logger: %v", err)
	}

	notesUC, closeStore, err := newNotesUsecase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	notesSvc, err := apinotes.New(apinotes.NewOptions(notesUC))
	if err != nil {
		return fmt.Errorf("init notes service: %v", err)
	}

	srv, err := gwserver.New(gwserver.NewOptions(
		cfg.HTTP.Addr,
		notesSvc.Handler(),
		gwserver.WithMiddlewares(
			ctxtr.MockAuthMiddleware(cfg.App.UserID),
			slogx.HTTPMiddleware,
			apinotes.CORSMiddleware(cfg.HTTP.AllowedOrigin),
		),
		gwserver.WithLogger(slogx.Default()),
	))
	if err != nil {
		return fmt.Errorf("init http server: %v", err)
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return srv.Run(ctx) })

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wait app stop: %v", err)
	}

	return nil
}

func newNotesUsecase(ctx context.Context, cfg config.Config) (*notesuc.Usecase, func(), error) {
	if cfg.Database.InMemory {
		slogx.Warn(ctx, "using in-memory note store, data is lost on restart")

		repo := memory.New()
		uc, err := notesuc.New(notesuc.NewOptions(repo, repo, notesuc.WithGracePeriod(cfg.Notes.GracePeriod)))
		if err != nil {
			return nil, nil, fmt.Errorf("init notes usecase: %v", err)
		}

		return uc, func() {}, nil
	}

	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	uc, err := notesuc.New(notesuc.NewOptions(
		repository.New(db),
		db,
		notesuc.WithGracePeriod(cfg.Notes.GracePeriod),
	))
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init notes usecase: %v", err)
	}

	return uc, db.Close, nil
}

func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*database.Database, error) {
	pool, err := database.NewPGX(ctx, database.NewOptions(
		net.JoinHostPort(cfg.Host, cfg.Port),
		cfg.User,
		cfg.Password,
		cfg.Name,
		database.WithRetryAttempts(cfg.RetryAttempts),
		database.WithLogger(slogx.Default()),
	))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %v", err)
	}

	db := database.NewDatabase(pool)
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
