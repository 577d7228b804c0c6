// Package sqlite persists stashes and ledger entries in SQLite through modernc.org/sqlite.
// Rows keep the aggregate snapshot as JSON next to the columns queries filter on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database. Pools of more than one connection would each
// see their own database, so Open pins it to a single connection.
const MemoryDSN = ":memory:"

// Store owns the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("open sqlite: empty dsn")
	}

	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if dsn == MemoryDSN {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Store) Stashes() *StashRepository { return &StashRepository{db: s.db} }
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{db: s.db} }
