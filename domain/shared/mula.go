package shared

import (
	"encoding/json"
	"fmt"
	"math/big"

	berr "github.com/next-trace/stashit/contract/errors"
)

// Mula is a non-negative amount of an asset in its smallest unit.
// The amount is arbitrary precision; Mula values never share their big.Int.
type Mula struct {
	amount *big.Int
	asset  Asset
}

// NewMula builds an amount from a uint64 count of minor units.
func NewMula(amount uint64, asset Asset) Mula {
	return Mula{amount: new(big.Int).SetUint64(amount), asset: asset}
}

// ParseMula parses a base-10 minor-unit amount.
func ParseMula(amount string, asset Asset) (Mula, error) {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok || v.Sign() < 0 {
		return Mula{}, fmt.Errorf("amount %q: %w", amount, berr.ErrInvalidValue)
	}

	return Mula{amount: v, asset: asset}, nil
}

// ZeroOf returns a zero amount of asset.
func ZeroOf(asset Asset) Mula { return NewMula(0, asset) }

func (m Mula) Asset() Asset { return m.asset }

// Amount returns a copy of the minor-unit amount.
func (m Mula) Amount() *big.Int {
	if m.amount == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(m.amount)
}

// Add returns m+o. Both must be of the same asset.
func (m Mula) Add(o Mula) (Mula, error) {
	if !m.asset.Equal(o.asset) {
		return Mula{}, fmt.Errorf("add %s to %s: %w", o.asset.Key(), m.asset.Key(), berr.ErrInvalidValue)
	}

	return Mula{amount: new(big.Int).Add(m.Amount(), o.Amount()), asset: m.asset}, nil
}

// Sub returns m-o, failing with ErrInsufficientFunds when the result would be negative.
func (m Mula) Sub(o Mula) (Mula, error) {
	if !m.asset.Equal(o.asset) {
		return Mula{}, fmt.Errorf("sub %s from %s: %w", o.asset.Key(), m.asset.Key(), berr.ErrInvalidValue)
	}

	out := new(big.Int).Sub(m.Amount(), o.Amount())
	if out.Sign() < 0 {
		return Mula{}, fmt.Errorf("sub %s from %s: %w", o.String(), m.String(), berr.ErrInsufficientFunds)
	}

	return Mula{amount: out, asset: m.asset}, nil
}

// Equal compares asset identity and amount.
func (m Mula) Equal(o Mula) bool {
	return m.asset.Equal(o.asset) && m.Amount().Cmp(o.Amount()) == 0
}

func (m Mula) String() string { return m.Amount().String() + " " + m.asset.Symbol }

type mulaJSON struct {
	Amount string `json:"amount"`
	Asset  Asset  `json:"asset"`
}

func (m Mula) MarshalJSON() ([]byte, error) {
	return json.Marshal(mulaJSON{Amount: m.Amount().String(), Asset: m.asset})
}

func (m *Mula) UnmarshalJSON(b []byte) error {
	var raw mulaJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	parsed, err := ParseMula(raw.Amount, raw.Asset)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}
