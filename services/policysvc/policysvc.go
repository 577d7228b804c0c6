// Package policysvc manages governance policies: one per principal, holding CEL-guarded rules and
// the actions they may trigger.
package policysvc

import (
	"context"
	"fmt"
	"log/slog"

	cbus "github.com/next-trace/stashit/contract/bus"
	berr "github.com/next-trace/stashit/contract/errors"
	"github.com/next-trace/stashit/domain/governance"
	"github.com/next-trace/stashit/domain/shared"
	"github.com/next-trace/stashit/servicebus"
)

type Service struct {
	repo   governance.Repository
	pub    cbus.Publisher
	logger *slog.Logger
}

func New(repo governance.Repository, pub cbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{repo: repo, pub: pub, logger: logger}
}

// CreatePolicy fails with ErrEntityAlreadyExists when the principal already has a policy.
func (s *Service) CreatePolicy(ctx context.Context, principalID shared.ID) (*governance.Policy, error) {
	existing, err := s.repo.FindByPrincipalID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("create policy for %s: %w", principalID, err)
	}

	if existing != nil {
		return nil, fmt.Errorf("create policy for %s: %w", principalID, berr.ErrEntityAlreadyExists)
	}

	p := governance.NewPolicy(principalID)
	p.Trace(cbus.CauseFrom(ctx))

	if err := s.commit(ctx, p); err != nil {
		return nil, fmt.Errorf("create policy for %s: %w", principalID, err)
	}

	s.logger.InfoContext(ctx, "policy created", "policy_id", p.ID().String(), "principal_id", principalID.String())

	return p, nil
}

// GetPrincipalPolicy fails with ErrEntityNotFound when the principal has no policy.
func (s *Service) GetPrincipalPolicy(ctx context.Context, principalID shared.ID) (*governance.Policy, error) {
	p, err := s.repo.FindByPrincipalID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("get policy of %s: %w", principalID, err)
	}

	if p == nil {
		return nil, fmt.Errorf("get policy of %s: %w", principalID, berr.ErrEntityNotFound)
	}

	return p, nil
}

// AddRules appends rules to the principal's policy in the given order.
func (s *Service) AddRules(ctx context.Context, principalID shared.ID, rules ...governance.Rule) (*governance.Policy, error) {
	p, err := s.GetPrincipalPolicy(ctx, principalID)
	if err != nil {
		return nil, err
	}

	p.Trace(cbus.CauseFrom(ctx))

	for _, r := range rules {
		p.AddRule(r)
	}

	if err := s.commit(ctx, p); err != nil {
		return nil, fmt.Errorf("add rules to policy %s: %w", p.ID(), err)
	}

	return p, nil
}

// AddActions validates every action before any is attached.
func (s *Service) AddActions(ctx context.Context, principalID shared.ID, actions ...governance.Action) (*governance.Policy, error) {
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	p, err := s.GetPrincipalPolicy(ctx, principalID)
	if err != nil {
		return nil, err
	}

	p.Trace(cbus.CauseFrom(ctx))

	for _, a := range actions {
		if err := p.AddAction(a); err != nil {
			return nil, err
		}
	}

	if err := s.commit(ctx, p); err != nil {
		return nil, fmt.Errorf("add actions to policy %s: %w", p.ID(), err)
	}

	return p, nil
}

// EvaluatePrincipal returns the rules of the principal's policy whose predicate holds for facts.
func (s *Service) EvaluatePrincipal(ctx context.Context, principalID shared.ID, facts map[string]any) ([]governance.Rule, error) {
	p, err := s.GetPrincipalPolicy(ctx, principalID)
	if err != nil {
		return nil, err
	}

	rules, err := p.Evaluate(ctx, facts)
	if err != nil {
		return nil, fmt.Errorf("evaluate policy %s: %w", p.ID(), err)
	}

	s.logger.DebugContext(ctx, "policy evaluated", "policy_id", p.ID().String(), "matched", len(rules))

	return rules, nil
}

// Permits reports whether the principal's policy allows an intent of type t under facts.
func (s *Service) Permits(ctx context.Context, principalID shared.ID, facts map[string]any, t governance.IntentType) (bool, error) {
	p, err := s.GetPrincipalPolicy(ctx, principalID)
	if err != nil {
		return false, err
	}

	return p.Permits(ctx, facts, t)
}

func (s *Service) commit(ctx context.Context, p *governance.Policy) error {
	return servicebus.Commit(ctx, s.pub, p, func(ctx context.Context) error { return s.repo.Save(ctx, p) })
}
