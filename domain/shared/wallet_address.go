package shared

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	berr "github.com/next-trace/stashit/contract/errors"
)

// WalletAddress is a 20-byte EVM account address kept in its EIP-55 checksummed form.
type WalletAddress struct{ s string }

// ParseWalletAddress accepts "0x" followed by 40 hex digits in any case.
// Mixed-case input must carry a valid EIP-55 checksum.
func ParseWalletAddress(s string) (WalletAddress, error) {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return WalletAddress{}, fmt.Errorf("wallet address %q: %w", s, berr.ErrInvalidValue)
	}

	digits := s[2:]
	if _, err := hex.DecodeString(digits); err != nil {
		return WalletAddress{}, fmt.Errorf("wallet address %q: %w", s, berr.ErrInvalidValue)
	}

	sum := checksum(digits)

	lower, upper := strings.ToLower(digits) == digits, strings.ToUpper(digits) == digits
	if !lower && !upper && sum[2:] != digits {
		return WalletAddress{}, fmt.Errorf("wallet address %q: bad checksum: %w", s, berr.ErrInvalidValue)
	}

	return WalletAddress{s: sum}, nil
}

func checksum(digits string) string {
	lower := strings.ToLower(digits)

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	hash := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}

	return "0x" + string(out)
}

func (w WalletAddress) String() string { return w.s }

// IsZero reports whether no address is set.
func (w WalletAddress) IsZero() bool { return w.s == "" }

func (w WalletAddress) MarshalText() ([]byte, error) { return []byte(w.s), nil }

func (w *WalletAddress) UnmarshalText(b []byte) error {
	parsed, err := ParseWalletAddress(string(b))
	if err != nil {
		return err
	}

	*w = parsed

	return nil
}
