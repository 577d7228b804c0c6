package user

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"

	berr "github.com/next-trace/stashit/contract/errors"
)

// OTPCode is a six digit one-time login code.
type OTPCode struct{ v string }

var otpSpan = big.NewInt(900000)

// NewOTPCode draws a code in [100000, 999999] from crypto/rand.
func NewOTPCode() OTPCode {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("otp: %v", err))
	}

	return OTPCode{v: strconv.FormatInt(n.Int64()+100000, 10)}
}

func ParseOTPCode(s string) (OTPCode, error) {
	if len(s) != 6 || s[0] == '0' {
		return OTPCode{}, fmt.Errorf("otp code: %w", berr.ErrInvalidValue)
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return OTPCode{}, fmt.Errorf("otp code: %w", berr.ErrInvalidValue)
		}
	}

	return OTPCode{v: s}, nil
}

func (c OTPCode) String() string { return c.v }

// Matches compares in constant time.
func (c OTPCode) Matches(s string) bool {
	return c.v != "" && subtle.ConstantTimeCompare([]byte(c.v), []byte(s)) == 1
}
