package ports

import (
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

// RepoManager interface defines the methods for deposits, events and policy.
// Every read/write operation made with a context returned by Begin is part of
// the same transaction.
type RepoManager interface {
	uow.Transactional

	DepositRepository() domain.DepositRepository
	EventRepository() domain.EventRepository
	PolicyRepository() domain.PolicyRepository

	Close()
}
