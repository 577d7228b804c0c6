package user

import (
	"fmt"
	"net/mail"
	"strings"

	berr "github.com/next-trace/stashit/contract/errors"
)

// Email is a bare RFC 5322 address without display name.
type Email struct{ addr string }

func ParseEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)

	a, err := mail.ParseAddress(s)
	if err != nil || a.Name != "" || a.Address != s {
		return Email{}, fmt.Errorf("email %q: %w", s, berr.ErrInvalidValue)
	}

	return Email{addr: a.Address}, nil
}

func (e Email) String() string { return e.addr }
func (e Email) IsZero() bool   { return e.addr == "" }

func (e Email) MarshalText() ([]byte, error) { return []byte(e.addr), nil }

func (e *Email) UnmarshalText(b []byte) error {
	v, err := ParseEmail(string(b))
	if err != nil {
		return err
	}

	*e = v

	return nil
}
