package governance

import (
	"context"
	"fmt"
	"slices"
	"time"

	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/shared"
)

// Policy is the set of rules and actions governing one principal.
type Policy struct {
	id          shared.ID
	principalID shared.ID
	rules       []Rule
	actions     []Action
	createdAt   time.Time
	updatedAt   time.Time

	events shared.Events
}

func NewPolicy(principalID shared.ID) *Policy {
	p := &Policy{id: shared.NewID(), principalID: principalID}

	meta := p.events.Meta()
	p.createdAt, p.updatedAt = meta.At, meta.At
	p.events.Record(PolicyCreated{Meta: meta, PolicyID: p.id, PrincipalID: principalID})

	return p
}

func (p *Policy) ID() shared.ID          { return p.id }
func (p *Policy) PrincipalID() shared.ID { return p.principalID }
func (p *Policy) Rules() []Rule          { return slices.Clone(p.rules) }
func (p *Policy) Actions() []Action      { return slices.Clone(p.actions) }
func (p *Policy) CreatedAt() time.Time   { return p.createdAt }
func (p *Policy) UpdatedAt() time.Time   { return p.updatedAt }

func (p *Policy) Trace(c cbus.Cause)              { p.events.Trace(c) }
func (p *Policy) DrainEvents() []cbus.DomainEvent { return p.events.DrainEvents() }

func (p *Policy) AddRule(r Rule) {
	meta := p.events.Meta()
	p.rules = append(p.rules, r)
	p.updatedAt = meta.At

	p.events.Record(PolicyRuleAdded{Meta: meta, PolicyID: p.id, Rule: r})
}

// AddAction validates a before attaching it.
func (p *Policy) AddAction(a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}

	meta := p.events.Meta()
	p.actions = append(p.actions, a)
	p.updatedAt = meta.At

	p.events.Record(PolicyActionAdded{Meta: meta, PolicyID: p.id, Action: a})

	return nil
}

// Evaluate returns the rules whose predicate holds for facts, in rule order.
func (p *Policy) Evaluate(ctx context.Context, facts map[string]any) ([]Rule, error) {
	var matched []Rule

	for _, r := range p.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := r.Predicate.Eval(facts)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}

		if ok {
			matched = append(matched, r)
		}
	}

	return matched, nil
}

// Permits reports whether any rule matching facts permits an intent of type t.
func (p *Policy) Permits(ctx context.Context, facts map[string]any, t IntentType) (bool, error) {
	rules, err := p.Evaluate(ctx, facts)
	if err != nil {
		return false, err
	}

	for _, r := range rules {
		for _, in := range r.PermittedIntents {
			if in.Type == t {
				return true, nil
			}
		}
	}

	return false, nil
}

type Snapshot struct {
	ID          shared.ID `json:"id"`
	PrincipalID shared.ID `json:"principal_id"`
	Rules       []Rule    `json:"rules"`
	Actions     []Action  `json:"actions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Policy) Snapshot() Snapshot {
	return Snapshot{
		ID:          p.id,
		PrincipalID: p.principalID,
		Rules:       slices.Clone(p.rules),
		Actions:     slices.Clone(p.actions),
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
	}
}

func Restore(s Snapshot) *Policy {
	return &Policy{
		id:          s.ID,
		principalID: s.PrincipalID,
		rules:       slices.Clone(s.Rules),
		actions:     slices.Clone(s.Actions),
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
}

type Repository interface {
	// FindByPrincipalID returns (nil, nil) when the principal has no policy.
	FindByPrincipalID(ctx context.Context, principalID shared.ID) (*Policy, error)
	Save(ctx context.Context, p *Policy) error
}
