package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DepositStatus tells whether a deposit is still pending or which terminal
// transition it went through.
type DepositStatus int

const (
	DepositStatusCreated DepositStatus = iota
	DepositStatusClaimed
	DepositStatusRecovered
)

func (s DepositStatus) String() string {
	switch s {
	case DepositStatusCreated:
		return "CREATED"
	case DepositStatusClaimed:
		return "CLAIMED"
	case DepositStatusRecovered:
		return "RECOVERED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Deposit is the escrowed position staged by a depositor for an intended
// recipient. The underlying asset is supplied to a yield strategy, therefore
// the deposit holds YieldAmount units of YieldAsset, as measured by the vault.
type Deposit struct {
	ID                uint64
	Depositor         common.Address
	UnderlyingAsset   common.Address
	Amount            *big.Int
	YieldAsset        common.Address
	YieldAmount       *big.Int
	IntendedRecipient common.Address
	CreatedAt         time.Time
	Used              bool
	Status            DepositStatus
	ResolvedAt        time.Time
}

// NewDeposit returns a new pending deposit. The id is assigned by the
// DepositRepository when the deposit is added.
func NewDeposit(
	depositor, underlyingAsset common.Address, amount *big.Int,
	yieldAsset common.Address, yieldAmount *big.Int,
	intendedRecipient common.Address, createdAt time.Time,
) (*Deposit, error) {
	if isNullAddress(depositor) {
		return nil, fmt.Errorf("%w: missing depositor", ErrInvalidPrincipal)
	}
	if isNullAddress(underlyingAsset) {
		return nil, ErrInvalidAsset
	}
	if !isPositive(amount) {
		return nil, ErrInvalidAmount
	}
	if isNullAddress(yieldAsset) {
		return nil, ErrYieldAssetNotFound
	}
	if !isPositive(yieldAmount) {
		return nil, ErrNoYieldReceived
	}
	if isNullAddress(intendedRecipient) {
		return nil, fmt.Errorf("%w: missing intended recipient", ErrInvalidPrincipal)
	}

	return &Deposit{
		Depositor:         depositor,
		UnderlyingAsset:   underlyingAsset,
		Amount:            new(big.Int).Set(amount),
		YieldAsset:        yieldAsset,
		YieldAmount:       new(big.Int).Set(yieldAmount),
		IntendedRecipient: intendedRecipient,
		CreatedAt:         createdAt,
		Status:            DepositStatusCreated,
	}, nil
}

// Exists returns whether the deposit is an actual record. A zero yield amount
// is the sentinel for a missing one.
func (d *Deposit) Exists() bool {
	return d != nil && isPositive(d.YieldAmount)
}

func (d *Deposit) IsUsed() bool {
	return d.Used
}

// RecoverableAt returns the instant from which the depositor is allowed to
// recover the deposit, given the recovery delay.
func (d *Deposit) RecoverableAt(recoveryDelay time.Duration) time.Time {
	return d.CreatedAt.Add(recoveryDelay)
}

// Claim transfers the ownership of the deposit to the given claimant, which
// must be the intended recipient and, if the whitelist is enabled, must also be
// whitelisted.
func (d *Deposit) Claim(claimant common.Address, policy Policy, now time.Time) error {
	if !d.Exists() {
		return ErrDepositNotFound
	}
	if d.Used {
		return ErrDepositAlreadyUsed
	}
	if d.IntendedRecipient != claimant {
		return ErrNotIntendedRecipient
	}
	if !policy.CanClaim(claimant) {
		return ErrNotWhitelisted
	}

	d.resolve(DepositStatusClaimed, now)
	return nil
}

// Recover gives the deposit back to its depositor once the recovery delay has
// elapsed.
func (d *Deposit) Recover(caller common.Address, policy Policy, now time.Time) error {
	if !d.Exists() {
		return ErrDepositNotFound
	}
	if d.Depositor != caller {
		return ErrNotDepositor
	}
	if d.Used {
		return ErrDepositAlreadyUsed
	}
	if now.Before(d.RecoverableAt(policy.RecoveryDelay)) {
		return ErrRecoveryNotAvailable
	}

	d.resolve(DepositStatusRecovered, now)
	return nil
}

// Copy returns a deep copy of the deposit.
func (d Deposit) Copy() Deposit {
	cp := d
	if d.Amount != nil {
		cp.Amount = new(big.Int).Set(d.Amount)
	}
	if d.YieldAmount != nil {
		cp.YieldAmount = new(big.Int).Set(d.YieldAmount)
	}
	return cp
}

func (d *Deposit) resolve(status DepositStatus, now time.Time) {
	d.Used = true
	d.Status = status
	d.ResolvedAt = now
}

func isNullAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

func isPositive(n *big.Int) bool {
	return n != nil && n.Sign() > 0
}
