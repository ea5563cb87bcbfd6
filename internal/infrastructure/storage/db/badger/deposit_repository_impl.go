package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type depositRepositoryImpl struct {
	store *badgerhold.Store
}

// NewDepositRepositoryImpl initialize a badger implementation of the
// domain.DepositRepository. The active and claimable indexes are badgerhold
// indexes over the unused deposits.
func NewDepositRepositoryImpl(store *badgerhold.Store) domain.DepositRepository {
	return depositRepositoryImpl{store}
}

func (d depositRepositoryImpl) AddDeposit(
	ctx context.Context, dep *domain.Deposit,
) (uint64, error) {
	if !dep.Exists() {
		return 0, domain.ErrNoYieldReceived
	}

	var id uint64
	if err := update(ctx, d.store, func(tx *badger.Txn) error {
		next, err := nextSequence(tx, d.store, depositsCounterKey, 1)
		if err != nil {
			return err
		}
		id = next

		record := dep.Copy()
		record.ID = id
		return d.store.TxInsert(tx, id, newDeposit(record))
	}); err != nil {
		return 0, err
	}

	dep.ID = id
	return id, nil
}

func (d depositRepositoryImpl) GetDeposit(
	ctx context.Context, id uint64,
) (*domain.Deposit, error) {
	var dep *domain.Deposit
	if err := view(ctx, d.store, func(tx *badger.Txn) error {
		var err error
		dep, err = d.getDeposit(tx, id)
		return err
	}); err != nil {
		return nil, err
	}
	return dep, nil
}

func (d depositRepositoryImpl) UpdateDeposit(
	ctx context.Context,
	id uint64, updateFn func(d *domain.Deposit) (*domain.Deposit, error),
) error {
	return update(ctx, d.store, func(tx *badger.Txn) error {
		prev, err := d.getDeposit(tx, id)
		if err != nil {
			return err
		}
		wasUsed := prev.Used

		updated, err := updateFn(prev)
		if err != nil {
			return err
		}
		if wasUsed && !updated.Used {
			return domain.ErrDepositAlreadyUsed
		}
		updated.ID = id

		return d.store.TxUpdate(tx, id, newDeposit(*updated))
	})
}

func (d depositRepositoryImpl) GetActiveDepositIDs(
	ctx context.Context, depositor common.Address,
) ([]uint64, error) {
	query := badgerhold.Where("Depositor").Eq(depositor.Hex()).
		Index("Depositor").And("Used").Eq(false)
	return d.findIDs(ctx, query)
}

func (d depositRepositoryImpl) CountActiveDeposits(
	ctx context.Context, depositor common.Address,
) (int, error) {
	ids, err := d.GetActiveDepositIDs(ctx, depositor)
	if err != nil {
		return -1, err
	}
	return len(ids), nil
}

func (d depositRepositoryImpl) GetClaimableDepositIDs(
	ctx context.Context, recipient common.Address,
) ([]uint64, error) {
	query := badgerhold.Where("IntendedRecipient").Eq(recipient.Hex()).
		Index("IntendedRecipient").And("Used").Eq(false)
	return d.findIDs(ctx, query)
}

func (d depositRepositoryImpl) CountClaimableDeposits(
	ctx context.Context, recipient common.Address,
) (int, error) {
	ids, err := d.GetClaimableDepositIDs(ctx, recipient)
	if err != nil {
		return -1, err
	}
	return len(ids), nil
}

func (d depositRepositoryImpl) getDeposit(
	tx *badger.Txn, id uint64,
) (*domain.Deposit, error) {
	var dep deposit
	if err := d.store.TxGet(tx, id, &dep); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrDepositNotFound
		}
		return nil, err
	}
	return dep.toDomain(), nil
}

func (d depositRepositoryImpl) findIDs(
	ctx context.Context, query *badgerhold.Query,
) ([]uint64, error) {
	var deposits []deposit
	if err := view(ctx, d.store, func(tx *badger.Txn) error {
		return d.store.TxFind(tx, &deposits, query)
	}); err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(deposits))
	for _, dep := range deposits {
		ids = append(ids, dep.ID)
	}
	return ids, nil
}

// nextSequence reserves n sequential numbers for the given counter and
// returns the first one.
func nextSequence(
	tx *badger.Txn, store *badgerhold.Store, key string, n uint64,
) (uint64, error) {
	var c counter
	if err := store.TxGet(tx, key, &c); err != nil {
		if err != badgerhold.ErrNotFound {
			return 0, err
		}
	}
	next := c.Value
	c.Value += n
	if err := store.TxUpsert(tx, key, c); err != nil {
		return 0, err
	}
	return next, nil
}

func countSequence(
	tx *badger.Txn, store *badgerhold.Store, key string,
) (uint64, error) {
	var c counter
	if err := store.TxGet(tx, key, &c); err != nil {
		if err != badgerhold.ErrNotFound {
			return 0, err
		}
	}
	return c.Value, nil
}
