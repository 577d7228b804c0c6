package shared

import (
	"fmt"

	berr "github.com/next-trace/stashit/contract/errors"
)

// UserStatus is the lifecycle state of a user account. Stash contexts react to its changes.
type UserStatus string

const (
	UserActive         UserStatus = "ACTIVE"
	UserSuspended      UserStatus = "SUSPENDED"
	UserPendingProfile UserStatus = "PENDING_PROFILE"
	UserDeleted        UserStatus = "DELETED"
)

// ParseUserStatus accepts the canonical upper-case names.
func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(s); st {
	case UserActive, UserSuspended, UserPendingProfile, UserDeleted:
		return st, nil
	default:
		return "", fmt.Errorf("user status %q: %w", s, berr.ErrInvalidValue)
	}
}

func (s UserStatus) String() string { return string(s) }
