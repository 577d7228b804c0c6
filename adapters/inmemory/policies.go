package inmemory

import (
	"context"

	"github.com/next-trace/stashit/domain/governance"
	"github.com/next-trace/stashit/domain/shared"
)

type PolicyRepository struct{ rows *store[shared.ID, governance.Snapshot] }

var _ governance.Repository = (*PolicyRepository)(nil)

func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{rows: newStore[shared.ID, governance.Snapshot]()}
}

func (r *PolicyRepository) FindByPrincipalID(ctx context.Context, principalID shared.ID) (*governance.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := r.rows.filter(func(s governance.Snapshot) bool { return s.PrincipalID == principalID })
	if len(found) == 0 {
		return nil, nil
	}

	return governance.Restore(found[0]), nil
}

func (r *PolicyRepository) Save(ctx context.Context, p *governance.Policy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows.put(p.ID(), p.Snapshot())

	return nil
}
