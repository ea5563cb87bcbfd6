package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

type txKey struct{}

// RepoManager is the in-memory implementation of ports.RepoManager. Changes
// made within a transaction are journaled and reverted on rollback.
type RepoManager struct {
	depositRepository domain.DepositRepository
	eventRepository   domain.EventRepository
	policyRepository  domain.PolicyRepository

	txLock *sync.Mutex
}

func NewRepoManager() ports.RepoManager {
	depositStore := &depositInmemoryStore{
		deposits:  map[uint64]domain.Deposit{},
		active:    newIndex(),
		claimable: newIndex(),
		locker:    &sync.RWMutex{},
	}
	eventStore := &eventInmemoryStore{
		events: make([]domain.Event, 0),
		locker: &sync.RWMutex{},
	}
	policyStore := &policyInmemoryStore{
		locker: &sync.RWMutex{},
	}

	return &RepoManager{
		depositRepository: NewDepositRepositoryImpl(depositStore),
		eventRepository:   NewEventRepositoryImpl(eventStore),
		policyRepository:  NewPolicyRepositoryImpl(policyStore),
		txLock:            &sync.Mutex{},
	}
}

func (d *RepoManager) DepositRepository() domain.DepositRepository {
	return d.depositRepository
}

func (d *RepoManager) EventRepository() domain.EventRepository {
	return d.eventRepository
}

func (d *RepoManager) PolicyRepository() domain.PolicyRepository {
	return d.policyRepository
}

// Begin opens a new transaction. Transactions are serialized.
func (d *RepoManager) Begin(
	ctx context.Context,
) (context.Context, uow.Tx, error) {
	txCtx, tx := uow.BeginJournal(ctx, txKey{}, d.txLock)
	return txCtx, tx, nil
}

func (d *RepoManager) Close() {}

func journal(ctx context.Context) *uow.Journal {
	return uow.JournalFromContext(ctx, txKey{})
}
