package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evgeniy-krivenko/notes-sync/pkg/logger/slogx"
)

type pinger interface {
	Ping(ctx context.Context) error
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=prober_options.gen.go -from-struct=Options
type Options struct {
	pinger   pinger    `option:"mandatory" validate:"required"`
	observer *Observer `option:"mandatory" validate:"required"`

	interval time.Duration `default:"5s"`
}

// Prober pings the remote store periodically and feeds the result into an
// Observer.
type Prober struct {
	Options
}

func NewProber(opts Options) (*Prober, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate prober options: %v", err)
	}

	if opts.interval <= 0 {
		return nil, fmt.Errorf("validate prober options: interval must be positive, got %s", opts.interval)
	}

	return &Prober{Options: opts}, nil
}

// Probe pings once and updates the observer.
func (p *Prober) Probe(ctx context.Context) bool {
	err := p.pinger.Ping(ctx)
	online := err == nil

	if p.observer.Set(online) {
		if online {
			slogx.Info(ctx, "remote store is reachable")
		} else {
			slogx.Warn(ctx, "remote store is unreachable", slogx.Err(err))
		}
	}

	return online
}

// Run probes immediately and then on every tick until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	slogx.Debug(ctx, "start connectivity prober", slog.Duration("interval", p.interval))

	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
