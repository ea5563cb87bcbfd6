package domain

import "context"

// PolicyRepository is the abstraction for any kind of database intended to
// persist the single Policy of the vault.
type PolicyRepository interface {
	// InitPolicy stores the given policy only if none exists yet. It returns
	// the policy in force after the call.
	InitPolicy(ctx context.Context, policy *Policy) (*Policy, error)
	// GetPolicy returns the current policy or ErrPolicyNotFound.
	GetPolicy(ctx context.Context) (*Policy, error)
	// UpdatePolicy updates the policy. The closure function let's to commit
	// multiple changes in a transactional way.
	UpdatePolicy(
		ctx context.Context, updateFn func(p *Policy) (*Policy, error),
	) error
}
