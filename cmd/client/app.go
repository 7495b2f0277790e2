package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/evgeniy-krivenko/notes-sync/internal/config"
	"github.com/evgeniy-krivenko/notes-sync/internal/connectivity"
	"github.com/evgeniy-krivenko/notes-sync/internal/localstore"
	"github.com/evgeniy-krivenko/notes-sync/internal/remote"
	"github.com/evgeniy-krivenko/notes-sync/internal/syncengine"
	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

type app struct {
	store  *localstore.Store
	conn   *connectivity.Observer
	prober *connectivity.Prober
	engine *syncengine.Engine
	closer io.Closer
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.ParseFile(path)
	}
	return config.Parse()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	closer, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := localstore.Open(ctx, cfg.Client.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client, err := remote.New(remote.NewOptions(cfg.Client.APIURL, remote.WithTimeout(cfg.Client.Timeout)))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init remote client: %w", err)
	}

	conn := connectivity.NewObserver(false)

	prober, err := connectivity.NewProber(connectivity.NewOptions(
		client,
		conn,
		connectivity.WithInterval(cfg.Client.ProbeInterval),
	))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init prober: %w", err)
	}

	engine, err := syncengine.New(syncengine.NewOptions(store, client, conn))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init sync engine: %w", err)
	}

	return &app{
		store:  store,
		conn:   conn,
		prober: prober,
		engine: engine,
		closer: closer,
	}, nil
}

// initLogger sends logs to a rotated file when one is configured so that
// they do not mix with command output.
func initLogger(cfg config.Config) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer
	)

	if cfg.Client.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Client.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		w, closer = lj, lj
	}

	if err := slogx.InitGlobal(w, cfg.App.LogLevel, cfg.App.Pretty); err != nil {
		return nil, fmt.Errorf("init logger: %v", err)
	}

	return closer, nil
}

func (a *app) Close() error {
	err := a.store.Close()
	if a.closer != nil {
		err = errors.Join(err, a.closer.Close())
	}

	return err
}
