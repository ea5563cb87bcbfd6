package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type policyRepositoryImpl struct {
	store *badgerhold.Store
}

func NewPolicyRepositoryImpl(store *badgerhold.Store) domain.PolicyRepository {
	return policyRepositoryImpl{store}
}

func (r policyRepositoryImpl) InitPolicy(
	ctx context.Context, p *domain.Policy,
) (*domain.Policy, error) {
	var current *domain.Policy
	if err := update(ctx, r.store, func(tx *badger.Txn) error {
		existing, err := r.getPolicy(tx)
		if err == nil {
			current = existing
			return nil
		}
		if err != domain.ErrPolicyNotFound {
			return err
		}

		if err := r.store.TxInsert(tx, policyKey, newPolicy(*p)); err != nil {
			return err
		}
		cp := p.Copy()
		current = &cp
		return nil
	}); err != nil {
		return nil, err
	}
	return current, nil
}

func (r policyRepositoryImpl) GetPolicy(ctx context.Context) (*domain.Policy, error) {
	var p *domain.Policy
	if err := view(ctx, r.store, func(tx *badger.Txn) error {
		var err error
		p, err = r.getPolicy(tx)
		return err
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r policyRepositoryImpl) UpdatePolicy(
	ctx context.Context, updateFn func(p *domain.Policy) (*domain.Policy, error),
) error {
	return update(ctx, r.store, func(tx *badger.Txn) error {
		p, err := r.getPolicy(tx)
		if err != nil {
			return err
		}

		updated, err := updateFn(p)
		if err != nil {
			return err
		}

		return r.store.TxUpdate(tx, policyKey, newPolicy(*updated))
	})
}

func (r policyRepositoryImpl) getPolicy(tx *badger.Txn) (*domain.Policy, error) {
	var p policy
	if err := r.store.TxGet(tx, policyKey, &p); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, err
	}
	return p.toDomain(), nil
}
