// Package memory is the all-in-memory preset of the runtime: memory stores, the in-memory relay and
// no external connections.
package memory

import (
	"context"
	"log/slog"

	"github.com/next-trace/stashit/app"
	"github.com/next-trace/stashit/config"
)

// Config returns the settings New builds with.
func Config() config.Config {
	cfg := config.Default()
	cfg.Environment = config.Test
	cfg.JWT.Secret = config.DevelopmentSecret
	cfg.Bus.Relay = "memory"

	return cfg
}

// New builds an in-memory runtime and returns it with a cleanup that closes it.
func New(ctx context.Context, logger *slog.Logger, opts ...app.Option) (*app.App, func(), error) {
	a, err := app.Build(ctx, Config(), logger, opts...)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = a.Close(context.WithoutCancel(ctx)) }

	return a, cleanup, nil
}
