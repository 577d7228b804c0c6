package stash

import (
	"fmt"
	"unicode/utf8"

	berr "github.com/next-trace/stashit/contract/errors"
)

const (
	minLabel = 3
	maxLabel = 15

	// MaxTags is the most tags a single stash may carry.
	MaxTags = 10
)

func checkLabel(kind, s string) error {
	n := utf8.RuneCountInString(s)
	if n < minLabel || n > maxLabel {
		return fmt.Errorf("%s length %d not in [%d,%d]: %w", kind, n, minLabel, maxLabel, berr.ErrInvalidValue)
	}

	if s[0] >= '0' && s[0] <= '9' {
		return fmt.Errorf("%s %q must start with a letter: %w", kind, s, berr.ErrInvalidValue)
	}

	return nil
}

// Name is a stash name, unique per owner.
type Name struct{ v string }

func ParseName(s string) (Name, error) {
	if err := checkLabel("stash name", s); err != nil {
		return Name{}, err
	}

	return Name{v: s}, nil
}

func (n Name) String() string { return n.v }

func (n Name) MarshalText() ([]byte, error) { return []byte(n.v), nil }

func (n *Name) UnmarshalText(b []byte) error {
	v, err := ParseName(string(b))
	if err != nil {
		return err
	}

	*n = v

	return nil
}

type Tag struct{ v string }

func ParseTag(s string) (Tag, error) {
	if err := checkLabel("tag", s); err != nil {
		return Tag{}, err
	}

	return Tag{v: s}, nil
}

// ParseTags parses every tag, failing on the first invalid one.
func ParseTags(ss ...string) ([]Tag, error) {
	out := make([]Tag, 0, len(ss))
	for _, s := range ss {
		t, err := ParseTag(s)
		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	return out, nil
}

func (t Tag) String() string { return t.v }

func (t Tag) MarshalText() ([]byte, error) { return []byte(t.v), nil }

func (t *Tag) UnmarshalText(b []byte) error {
	v, err := ParseTag(string(b))
	if err != nil {
		return err
	}

	*t = v

	return nil
}
