package app

import (
	"context"
	"fmt"

	"github.com/next-trace/stashit/adapters/inmemory"
	"github.com/next-trace/stashit/adapters/redis"
	"github.com/next-trace/stashit/adapters/sqlite"
	"github.com/next-trace/stashit/config"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/domain/user"
)

func (a *App) stashStores(ctx context.Context, cfg config.Storage) (stash.Repository, stash.LedgerRepository, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}

		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		return db.Stashes(), db.Ledger(), nil
	case "memory", "":
		stashes := inmemory.NewStashRepository()
		return stashes, inmemory.NewLedgerRepository(stashes), nil
	default:
		return nil, nil, fmt.Errorf("storage driver %q not supported", cfg.Driver)
	}
}

func (a *App) sessionStore(ctx context.Context, cfg config.Sessions) (user.SessionRepository, error) {
	switch cfg.Driver {
	case "redis":
		repo, err := redis.NewSessionRepository(ctx, redis.Config{
			Addr:      cfg.Addr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			Retention: cfg.Retention,
		})
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func(context.Context) error { return repo.Close() })

		return repo, nil
	case "memory", "":
		return inmemory.NewSessionRepository(), nil
	default:
		return nil, fmt.Errorf("session driver %q not supported", cfg.Driver)
	}
}
