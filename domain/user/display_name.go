package user

import (
	"fmt"
	"unicode/utf8"

	berr "github.com/next-trace/stashit/contract/errors"
)

const (
	minDisplayName = 3
	maxDisplayName = 25
)

// DisplayName is the public name on a profile.
type DisplayName struct{ v string }

func ParseDisplayName(s string) (DisplayName, error) {
	n := utf8.RuneCountInString(s)
	if n < minDisplayName || n > maxDisplayName {
		return DisplayName{}, fmt.Errorf("display name length %d not in [%d,%d]: %w", n, minDisplayName, maxDisplayName, berr.ErrInvalidValue)
	}

	if s[0] >= '0' && s[0] <= '9' {
		return DisplayName{}, fmt.Errorf("display name must not start with a digit: %w", berr.ErrInvalidValue)
	}

	return DisplayName{v: s}, nil
}

func (d DisplayName) String() string { return d.v }
