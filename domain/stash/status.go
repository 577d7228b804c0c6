package stash

import (
	"fmt"

	berr "github.com/next-trace/stashit/contract/errors"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusPaused Status = "PAUSED"
	StatusClosed Status = "CLOSED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusPaused, StatusClosed:
		return st, nil
	default:
		return "", fmt.Errorf("stash status %q: %w", s, berr.ErrInvalidValue)
	}
}

func (s Status) String() string { return string(s) }
