package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/escrowd/internal/core/domain"
)

type policyInmemoryStore struct {
	policy *domain.Policy
	locker *sync.RWMutex
}

type PolicyRepositoryImpl struct {
	store *policyInmemoryStore
}

func NewPolicyRepositoryImpl(store *policyInmemoryStore) domain.PolicyRepository {
	return &PolicyRepositoryImpl{store}
}

func (r PolicyRepositoryImpl) InitPolicy(
	ctx context.Context, policy *domain.Policy,
) (*domain.Policy, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.policy == nil {
		p := policy.Copy()
		r.store.policy = &p

		journal(ctx).OnRollback(func() {
			r.store.locker.Lock()
			defer r.store.locker.Unlock()

			r.store.policy = nil
		})
	}

	p := r.store.policy.Copy()
	return &p, nil
}

func (r PolicyRepositoryImpl) GetPolicy(_ context.Context) (*domain.Policy, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	if r.store.policy == nil {
		return nil, domain.ErrPolicyNotFound
	}
	p := r.store.policy.Copy()
	return &p, nil
}

func (r PolicyRepositoryImpl) UpdatePolicy(
	ctx context.Context, updateFn func(p *domain.Policy) (*domain.Policy, error),
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if r.store.policy == nil {
		return domain.ErrPolicyNotFound
	}

	prev := r.store.policy
	cp := prev.Copy()
	updated, err := updateFn(&cp)
	if err != nil {
		return err
	}

	next := updated.Copy()
	r.store.policy = &next

	journal(ctx).OnRollback(func() {
		r.store.locker.Lock()
		defer r.store.locker.Unlock()

		r.store.policy = prev
	})

	return nil
}
