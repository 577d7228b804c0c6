package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/stash"
)

type StashRepository struct {
	db *sql.DB
}

var _ stash.Repository = (*StashRepository)(nil)

func (r *StashRepository) FindByID(ctx context.Context, id shared.ID) (*stash.Stash, error) {
	var data string

	err := r.db.QueryRowContext(ctx, `SELECT data FROM stashes WHERE id = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find stash %s: %w", id, err)
	}

	return decodeStash(data)
}

func (r *StashRepository) FindMany(ctx context.Context, q stash.FindManyQuery) ([]*stash.Stash, error) {
	query := `SELECT data FROM stashes`
	args := []any{}

	if !q.OwnerID.IsZero() {
		query += ` WHERE owner_id = ?`
		args = append(args, q.OwnerID.String())
	}

	query += ` ORDER BY rowid`

	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find stashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*stash.Stash{}

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan stash: %w", err)
		}

		s, err := decodeStash(data)
		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find stashes: %w", err)
	}

	return out, nil
}

func (r *StashRepository) ExistsWithName(ctx context.Context, ownerID shared.ID, name stash.Name) (bool, error) {
	var n int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM stashes WHERE owner_id = ? AND name = ?`,
		ownerID.String(), name.String(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check stash name %s: %w", name, err)
	}

	return n > 0, nil
}

// Save upserts the stash. Updates keep the row's original position in listings.
func (r *StashRepository) Save(ctx context.Context, s *stash.Stash) error {
	snap := s.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode stash %s: %w", snap.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO stashes (id, owner_id, name, status, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner_id = excluded.owner_id,
    name = excluded.name,
    status = excluded.status,
    data = excluded.data,
    updated_at = excluded.updated_at`,
		snap.ID.String(), snap.OwnerID.String(), snap.Name.String(), string(snap.Status), string(data),
		snap.CreatedAt.UTC().UnixMilli(), snap.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save stash %s: %w", snap.ID, err)
	}

	return nil
}

func decodeStash(data string) (*stash.Stash, error) {
	var snap stash.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("decode stash: %w", err)
	}

	return stash.Restore(snap), nil
}
