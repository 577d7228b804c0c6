package governance

import "github.com/next-trace/stashit/domain/shared"

const (
	EventPolicyCreated     = "PolicyCreated"
	EventPolicyRuleAdded   = "PolicyRuleAdded"
	EventPolicyActionAdded = "PolicyActionAdded"
)

var EventTypes = []string{EventPolicyCreated, EventPolicyRuleAdded, EventPolicyActionAdded}

type PolicyCreated struct {
	shared.Meta
	PolicyID    shared.ID `json:"policy_id"`
	PrincipalID shared.ID `json:"principal_id"`
}

func (PolicyCreated) EventType() string     { return EventPolicyCreated }
func (e PolicyCreated) AggregateID() string { return e.PolicyID.String() }

type PolicyRuleAdded struct {
	shared.Meta
	PolicyID shared.ID `json:"policy_id"`
	Rule     Rule      `json:"rule"`
}

func (PolicyRuleAdded) EventType() string     { return EventPolicyRuleAdded }
func (e PolicyRuleAdded) AggregateID() string { return e.PolicyID.String() }

type PolicyActionAdded struct {
	shared.Meta
	PolicyID shared.ID `json:"policy_id"`
	Action   Action    `json:"action"`
}

func (PolicyActionAdded) EventType() string     { return EventPolicyActionAdded }
func (e PolicyActionAdded) AggregateID() string { return e.PolicyID.String() }
