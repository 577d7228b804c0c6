// Package redis keeps login sessions in Redis. Each session key expires on its own once the
// session's TTL plus a retention window has passed.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/domain/user"
)

const (
	DefaultKeyPrefix = "stashit:"
	DefaultRetention = time.Hour
)

// Config holds the connection and key-layout settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// Retention keeps sessions readable after they expire, so late logins fail as invalid
	// rather than unknown.
	Retention time.Duration
}

// SessionRepository implements user.SessionRepository on Redis strings plus a per-user set index.
type SessionRepository struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       func() time.Time
}

var _ user.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository dials Redis and verifies the connection with PING.
func NewSessionRepository(ctx context.Context, cfg Config) (*SessionRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewSessionRepositoryFromClient(client, cfg), nil
}

// NewSessionRepositoryFromClient wraps an existing client. The caller keeps ownership of it.
func NewSessionRepositoryFromClient(client *redis.Client, cfg Config) *SessionRepository {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &SessionRepository{client: client, prefix: prefix, retention: retention, now: time.Now}
}

func (r *SessionRepository) sessionKey(id shared.ID) string { return r.prefix + "session:" + id.String() }
func (r *SessionRepository) userKey(id shared.ID) string    { return r.prefix + "user-sessions:" + id.String() }

func (r *SessionRepository) FindByID(ctx context.Context, id shared.ID) (*user.Session, error) {
	raw, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}

	return decodeSession(raw)
}

// FindUnused returns the user's sessions that are neither terminated nor past their expiry.
// Index members whose key has already expired are pruned.
func (r *SessionRepository) FindUnused(ctx context.Context, userID shared.ID) ([]*user.Session, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions of %s: %w", userID, err)
	}

	if len(ids) == 0 {
		return []*user.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefix + "session:" + id
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load sessions of %s: %w", userID, err)
	}

	now := r.now()
	out := []*user.Session{}

	var stale []any

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}

		s, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}

		if !s.HasExpired(now) {
			out = append(out, s)
		}
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, r.userKey(userID), stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune sessions of %s: %w", userID, err)
		}
	}

	return out, nil
}

func (r *SessionRepository) Save(ctx context.Context, s *user.Session) error {
	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID(), err)
	}

	ttl := s.ExpiresAt().Sub(r.now()) + r.retention
	if ttl < time.Second {
		ttl = time.Second
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.sessionKey(s.ID()), raw, ttl)
		p.SAdd(ctx, r.userKey(s.UserID()), s.ID().String())
		p.Expire(ctx, r.userKey(s.UserID()), ttl)

		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID(), err)
	}

	return nil
}

// Close closes the client.
func (r *SessionRepository) Close() error { return r.client.Close() }

// SetClock replaces the time source. Intended for tests.
func (r *SessionRepository) SetClock(now func() time.Time) { r.now = now }

func decodeSession(raw []byte) (*user.Session, error) {
	var snap user.SessionSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return user.RestoreSession(snap), nil
}
