package governance

import (
	"encoding/json"
	"fmt"

	berr "github.com/next-trace/stashit/contract/errors"
)

type IntentType string

const (
	IntentDeposit    IntentType = "DEPOSIT"
	IntentWithdrawal IntentType = "WITHDRAWAL"
	IntentCustom     IntentType = "CUSTOM"
)

// Transfer holds the params of DEPOSIT and WITHDRAWAL intents.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint32 `json:"amount"`
}

// Intent is what a rule permits or an action performs.
// On the wire it is {"type": ..., "params": ...}.
type Intent struct {
	Type       IntentType
	Transfer   Transfer // DEPOSIT, WITHDRAWAL
	CustomType string   // CUSTOM
}

func Deposit(from, to string, amount uint32) Intent {
	return Intent{Type: IntentDeposit, Transfer: Transfer{From: from, To: to, Amount: amount}}
}

func Withdrawal(from, to string, amount uint32) Intent {
	return Intent{Type: IntentWithdrawal, Transfer: Transfer{From: from, To: to, Amount: amount}}
}

func Custom(intentType string) Intent { return Intent{Type: IntentCustom, CustomType: intentType} }

type intentWire struct {
	Type   IntentType      `json:"type"`
	Params json.RawMessage `json:"params"`
}

type customParams struct {
	IntentType string `json:"intent_type"`
}

func (i Intent) MarshalJSON() ([]byte, error) {
	var (
		params []byte
		err    error
	)

	switch i.Type {
	case IntentDeposit, IntentWithdrawal:
		params, err = json.Marshal(i.Transfer)
	case IntentCustom:
		params, err = json.Marshal(customParams{IntentType: i.CustomType})
	default:
		return nil, fmt.Errorf("intent type %q: %w", i.Type, berr.ErrInvalidValue)
	}

	if err != nil {
		return nil, err
	}

	return json.Marshal(intentWire{Type: i.Type, Params: params})
}

func (i *Intent) UnmarshalJSON(b []byte) error {
	var w intentWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	switch w.Type {
	case IntentDeposit, IntentWithdrawal:
		var t Transfer
		if err := json.Unmarshal(w.Params, &t); err != nil {
			return fmt.Errorf("intent %s params: %w", w.Type, err)
		}

		*i = Intent{Type: w.Type, Transfer: t}
	case IntentCustom:
		var c customParams
		if err := json.Unmarshal(w.Params, &c); err != nil {
			return fmt.Errorf("intent %s params: %w", w.Type, err)
		}

		*i = Custom(c.IntentType)
	default:
		return fmt.Errorf("intent type %q: %w", w.Type, berr.ErrInvalidValue)
	}

	return nil
}
