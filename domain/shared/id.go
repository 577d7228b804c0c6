package shared

import (
	"fmt"

	"github.com/google/uuid"

	berr "github.com/next-trace/stashit/contract/errors"
)

// ID identifies an aggregate or entity instance.
type ID struct{ u uuid.UUID }

// NewID returns a random (v4) identifier.
func NewID() ID { return ID{u: uuid.New()} }

// ParseID parses the canonical textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("parse id %q: %w", s, berr.ErrInvalidValue)
	}

	return ID{u: u}, nil
}

// MustParseID is ParseID for constants and tests.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}

	return id
}

func (id ID) String() string { return id.u.String() }

// IsZero reports whether id was never assigned.
func (id ID) IsZero() bool { return id.u == uuid.Nil }

func (id ID) MarshalText() ([]byte, error) { return []byte(id.u.String()), nil }

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}
