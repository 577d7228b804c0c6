package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
)

type LedgerRepository struct {
	db *sql.DB
}

var _ stash.LedgerRepository = (*LedgerRepository)(nil)

func (r *LedgerRepository) FindByID(ctx context.Context, id shared.ID) (*stash.LedgerEntry, error) {
	var data string

	err := r.db.QueryRowContext(ctx, `SELECT data FROM ledger_entries WHERE id = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find ledger entry %s: %w", id, err)
	}

	return decodeEntry(data)
}

// FindMany filters by owner through a join on stashes.
func (r *LedgerRepository) FindMany(ctx context.Context, q stash.LedgerQuery) ([]*stash.LedgerEntry, error) {
	var (
		where []string
		args  []any
	)

	if !q.StashID.IsZero() {
		where = append(where, `e.stash_id = ?`)
		args = append(args, q.StashID.String())
	}

	if q.Type != "" {
		where = append(where, `e.type = ?`)
		args = append(args, string(q.Type))
	}

	if !q.OwnerID.IsZero() {
		where = append(where, `s.owner_id = ?`)
		args = append(args, q.OwnerID.String())
	}

	query := `SELECT e.data FROM ledger_entries e LEFT JOIN stashes s ON s.id = e.stash_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	query += ` ORDER BY e.rowid`

	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find ledger entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*stash.LedgerEntry{}

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		e, err := decodeEntry(data)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find ledger entries: %w", err)
	}

	return out, nil
}

func (r *LedgerRepository) Save(ctx context.Context, e *stash.LedgerEntry) error {
	snap := e.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode ledger entry %s: %w", snap.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO ledger_entries (id, stash_id, type, data, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    stash_id = excluded.stash_id,
    type = excluded.type,
    data = excluded.data`,
		snap.ID.String(), snap.StashID.String(), string(snap.Type), string(data), snap.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save ledger entry %s: %w", snap.ID, err)
	}

	return nil
}

func decodeEntry(data string) (*stash.LedgerEntry, error) {
	var snap stash.EntrySnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("decode ledger entry: %w", err)
	}

	return stash.RestoreLedgerEntry(snap), nil
}
