package inmemory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/pkg/idset"
)

type depositInmemoryStore struct {
	deposits  map[uint64]domain.Deposit
	active    index
	claimable index
	nextID    uint64
	locker    *sync.RWMutex
}

// index maps a principal to the set of ids of its unused deposits.
type index map[common.Address]*idset.Set

func newIndex() index {
	return make(index)
}

func (i index) add(key common.Address, id uint64) {
	set, ok := i[key]
	if !ok {
		set = idset.New()
		i[key] = set
	}
	set.Add(id)
}

func (i index) remove(key common.Address, id uint64) {
	set, ok := i[key]
	if !ok {
		return
	}
	set.Remove(id)
	if set.Len() <= 0 {
		delete(i, key)
	}
}

func (i index) ids(key common.Address) []uint64 {
	set, ok := i[key]
	if !ok {
		return []uint64{}
	}
	return set.IDs()
}

func (i index) count(key common.Address) int {
	set, ok := i[key]
	if !ok {
		return 0
	}
	return set.Len()
}

type DepositRepositoryImpl struct {
	store *depositInmemoryStore
}

// NewDepositRepositoryImpl returns a new DepositRepositoryImpl backed by the
// given store.
func NewDepositRepositoryImpl(store *depositInmemoryStore) domain.DepositRepository {
	return &DepositRepositoryImpl{store}
}

func (d DepositRepositoryImpl) AddDeposit(
	ctx context.Context, deposit *domain.Deposit,
) (uint64, error) {
	if !deposit.Exists() {
		return 0, domain.ErrNoYieldReceived
	}

	d.store.locker.Lock()
	defer d.store.locker.Unlock()

	id := d.store.nextID
	depositor, recipient := deposit.Depositor, deposit.IntendedRecipient
	deposit.ID = id
	d.store.deposits[id] = deposit.Copy()
	d.store.nextID++
	if !deposit.Used {
		d.store.active.add(depositor, id)
		d.store.claimable.add(recipient, id)
	}

	journal(ctx).OnRollback(func() {
		d.store.locker.Lock()
		defer d.store.locker.Unlock()

		delete(d.store.deposits, id)
		d.store.active.remove(depositor, id)
		d.store.claimable.remove(recipient, id)
		d.store.nextID = id
	})

	return id, nil
}

func (d DepositRepositoryImpl) GetDeposit(
	_ context.Context, id uint64,
) (*domain.Deposit, error) {
	d.store.locker.RLock()
	defer d.store.locker.RUnlock()

	dep, ok := d.store.deposits[id]
	if !ok {
		return nil, domain.ErrDepositNotFound
	}
	cp := dep.Copy()
	return &cp, nil
}

func (d DepositRepositoryImpl) UpdateDeposit(
	ctx context.Context,
	id uint64, updateFn func(d *domain.Deposit) (*domain.Deposit, error),
) error {
	d.store.locker.Lock()
	defer d.store.locker.Unlock()

	prev, ok := d.store.deposits[id]
	if !ok {
		return domain.ErrDepositNotFound
	}

	cp := prev.Copy()
	updated, err := updateFn(&cp)
	if err != nil {
		return err
	}
	if prev.Used && !updated.Used {
		return domain.ErrDepositAlreadyUsed
	}
	updated.ID = id

	d.store.deposits[id] = updated.Copy()
	becameUsed := !prev.Used && updated.Used
	if becameUsed {
		d.store.active.remove(prev.Depositor, id)
		d.store.claimable.remove(prev.IntendedRecipient, id)
	}

	journal(ctx).OnRollback(func() {
		d.store.locker.Lock()
		defer d.store.locker.Unlock()

		d.store.deposits[id] = prev
		if becameUsed {
			d.store.active.add(prev.Depositor, id)
			d.store.claimable.add(prev.IntendedRecipient, id)
		}
	})

	return nil
}

func (d DepositRepositoryImpl) GetActiveDepositIDs(
	_ context.Context, depositor common.Address,
) ([]uint64, error) {
	d.store.locker.RLock()
	defer d.store.locker.RUnlock()

	return d.store.active.ids(depositor), nil
}

func (d DepositRepositoryImpl) CountActiveDeposits(
	_ context.Context, depositor common.Address,
) (int, error) {
	d.store.locker.RLock()
	defer d.store.locker.RUnlock()

	return d.store.active.count(depositor), nil
}

func (d DepositRepositoryImpl) GetClaimableDepositIDs(
	_ context.Context, recipient common.Address,
) ([]uint64, error) {
	d.store.locker.RLock()
	defer d.store.locker.RUnlock()

	return d.store.claimable.ids(recipient), nil
}

func (d DepositRepositoryImpl) CountClaimableDeposits(
	_ context.Context, recipient common.Address,
) (int, error) {
	d.store.locker.RLock()
	defer d.store.locker.RUnlock()

	return d.store.claimable.count(recipient), nil
}
