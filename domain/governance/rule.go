package governance

import (
	"fmt"

	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/shared"
)

// Rule grants PermittedIntents while Predicate holds. PenaltyPolicyID, when set, names the policy
// that applies on violation.
type Rule struct {
	ID               shared.ID  `json:"id"`
	Name             string     `json:"name"`
	Predicate        Predicate  `json:"predicate"`
	PermittedIntents []Intent   `json:"permitted_intents"`
	PenaltyPolicyID  *shared.ID `json:"penalty_policy_id,omitempty"`
}

func NewRule(name string, predicate Predicate, permitted []Intent, penalty *shared.ID) (Rule, error) {
	if name == "" {
		return Rule{}, fmt.Errorf("rule: empty name: %w", berr.ErrEntityInvalid)
	}

	if predicate.String() == "" {
		return Rule{}, fmt.Errorf("rule %s: empty predicate: %w", name, berr.ErrEntityInvalid)
	}

	return Rule{ID: shared.NewID(), Name: name, Predicate: predicate, PermittedIntents: permitted, PenaltyPolicyID: penalty}, nil
}
