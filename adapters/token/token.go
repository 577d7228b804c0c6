// Package token issues and validates the HS512 JWTs handed out after a successful login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
)

const (
	DefaultIssuer   = "auth.stash.it"
	DefaultAudience = "users.stash.it"
	DefaultTTL      = 24 * time.Hour
)

// Config is the signing setup. Empty fields take the defaults above; Secret is required.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Claims are the registered claims; Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens.
type Manager struct {
	secret []byte
	cfg    Config
	now    func() time.Time
}

func New(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token: empty secret: %w", berr.ErrInvalidValue)
	}

	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	return &Manager{secret: []byte(cfg.Secret), cfg: cfg, now: time.Now}, nil
}

// Issue signs a token for userID.
func (m *Manager) Issue(userID shared.ID) (string, error) {
	now := m.now().UTC()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        shared.NewID().String(),
		Subject:   userID.String(),
		Issuer:    m.cfg.Issuer,
		Audience:  jwt.ClaimStrings{m.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
	}}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate checks signature, algorithm, issuer, audience and expiry, and returns the user id.
func (m *Manager) Validate(raw string) (shared.ID, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return shared.ID{}, fmt.Errorf("validate token: %w", errors.Join(berr.ErrEntityInvalid, err))
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return shared.ID{}, fmt.Errorf("validate token: %w", errors.Join(berr.ErrEntityInvalid, jwt.ErrTokenSignatureInvalid))
	}

	return shared.ParseID(claims.Subject)
}

// SetClock replaces the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }
