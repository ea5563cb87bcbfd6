package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// DepositRepository is the abstraction for any kind of database intended to
// persist Deposits along with the derived indexes of active deposits by
// depositor and claimable deposits by intended recipient.
type DepositRepository interface {
	// AddDeposit assigns the next sequential id to the given deposit, stores it
	// and adds it to the active and claimable indexes. The assigned id is
	// returned and also set to the given deposit.
	AddDeposit(ctx context.Context, deposit *Deposit) (uint64, error)
	// GetDeposit returns the deposit with the given id or ErrDepositNotFound.
	GetDeposit(ctx context.Context, id uint64) (*Deposit, error)
	// UpdateDeposit updates the state of a deposit. The closure function let's
	// to commit multiple changes to a certain deposit in a transactional way.
	// A deposit that becomes used is removed from both indexes, while a used
	// deposit can never be restored to unused.
	UpdateDeposit(
		ctx context.Context,
		id uint64, updateFn func(d *Deposit) (*Deposit, error),
	) error
	// GetActiveDepositIDs returns the ids of the unused deposits made by the
	// given depositor, in no particular order.
	GetActiveDepositIDs(
		ctx context.Context, depositor common.Address,
	) ([]uint64, error)
	// CountActiveDeposits returns the number of unused deposits made by the
	// given depositor.
	CountActiveDeposits(ctx context.Context, depositor common.Address) (int, error)
	// GetClaimableDepositIDs returns the ids of the unused deposits addressed
	// to the given recipient, in no particular order.
	GetClaimableDepositIDs(
		ctx context.Context, recipient common.Address,
	) ([]uint64, error)
	// CountClaimableDeposits returns the number of unused deposits addressed to
	// the given recipient.
	CountClaimableDeposits(ctx context.Context, recipient common.Address) (int, error)
}
