// Package custody implements an in-memory token ledger standing in for the
// token contracts of the assets held by the vault.
package custody

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

var (
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrInsufficientBalance ...
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance ...
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrNullAddress is returned when moving funds from or to the null address.
	ErrNullAddress = errors.New("null address")
)

type txKey struct{}

type balanceKey struct {
	asset  common.Address
	holder common.Address
}

type allowanceKey struct {
	asset   common.Address
	owner   common.Address
	spender common.Address
}

// Book keeps the balances and allowances of every principal for every asset.
// Writes made with a context returned by Begin are reverted on rollback.
type Book struct {
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int

	locker *sync.RWMutex
	txLock *sync.Mutex
}

var (
	_ ports.Custody = (*Book)(nil)
	_ ports.Minter  = (*Book)(nil)
)

func NewBook() *Book {
	return &Book{
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		locker:     &sync.RWMutex{},
		txLock:     &sync.Mutex{},
	}
}

func (b *Book) Begin(ctx context.Context) (context.Context, uow.Tx, error) {
	txCtx, tx := uow.BeginJournal(ctx, txKey{}, b.txLock)
	return txCtx, tx, nil
}

func (b *Book) BalanceOf(
	_ context.Context, asset, holder common.Address,
) (*big.Int, error) {
	b.locker.RLock()
	defer b.locker.RUnlock()

	return b.balance(balanceKey{asset, holder}), nil
}

func (b *Book) Allowance(
	_ context.Context, asset, owner, spender common.Address,
) (*big.Int, error) {
	b.locker.RLock()
	defer b.locker.RUnlock()

	return b.allowance(allowanceKey{asset, owner, spender}), nil
}

func (b *Book) Approve(
	ctx context.Context, asset, owner, spender common.Address, amount *big.Int,
) error {
	if !isValidAmount(amount) {
		return ErrInvalidAmount
	}
	if isNullAddress(owner) || isNullAddress(spender) {
		return ErrNullAddress
	}

	b.locker.Lock()
	defer b.locker.Unlock()

	key := allowanceKey{asset, owner, spender}
	b.addAllowance(ctx, key, new(big.Int).Sub(amount, b.allowance(key)))
	return nil
}

func (b *Book) Transfer(
	ctx context.Context, asset, from, to common.Address, amount *big.Int,
) error {
	if !isValidAmount(amount) {
		return ErrInvalidAmount
	}
	if isNullAddress(from) || isNullAddress(to) {
		return ErrNullAddress
	}

	b.locker.Lock()
	defer b.locker.Unlock()

	return b.transfer(ctx, asset, from, to, amount)
}

func (b *Book) TransferFrom(
	ctx context.Context, asset, spender, from, to common.Address,
	amount *big.Int,
) error {
	if !isValidAmount(amount) {
		return ErrInvalidAmount
	}
	if isNullAddress(from) || isNullAddress(to) {
		return ErrNullAddress
	}

	b.locker.Lock()
	defer b.locker.Unlock()

	key := allowanceKey{asset, from, spender}
	allowance := b.allowance(key)
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if b.balance(balanceKey{asset, from}).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	b.addAllowance(ctx, key, new(big.Int).Neg(amount))
	return b.transfer(ctx, asset, from, to, amount)
}

// Mint issues new units of the given asset to the given holder.
func (b *Book) Mint(
	ctx context.Context, asset, to common.Address, amount *big.Int,
) error {
	if !isValidAmount(amount) {
		return ErrInvalidAmount
	}
	if isNullAddress(to) {
		return ErrNullAddress
	}

	b.locker.Lock()
	defer b.locker.Unlock()

	b.addBalance(ctx, balanceKey{asset, to}, amount)
	return nil
}

// Burn destroys units of the given asset owned by the given holder.
func (b *Book) Burn(
	ctx context.Context, asset, from common.Address, amount *big.Int,
) error {
	if !isValidAmount(amount) {
		return ErrInvalidAmount
	}

	b.locker.Lock()
	defer b.locker.Unlock()

	key := balanceKey{asset, from}
	if b.balance(key).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.addBalance(ctx, key, new(big.Int).Neg(amount))
	return nil
}

func (b *Book) transfer(
	ctx context.Context, asset, from, to common.Address, amount *big.Int,
) error {
	fromKey, toKey := balanceKey{asset, from}, balanceKey{asset, to}
	if b.balance(fromKey).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	b.addBalance(ctx, fromKey, new(big.Int).Neg(amount))
	b.addBalance(ctx, toKey, amount)
	return nil
}

func (b *Book) balance(key balanceKey) *big.Int {
	if balance, ok := b.balances[key]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

func (b *Book) allowance(key allowanceKey) *big.Int {
	if allowance, ok := b.allowances[key]; ok {
		return new(big.Int).Set(allowance)
	}
	return big.NewInt(0)
}

// addBalance must be called with the write lock held. Rollback reverts the
// delta rather than restoring the previous value, so that writes made outside
// of the transaction in the meantime are preserved.
func (b *Book) addBalance(ctx context.Context, key balanceKey, delta *big.Int) {
	b.balances[key] = new(big.Int).Add(b.balance(key), delta)

	uow.JournalFromContext(ctx, txKey{}).OnRollback(func() {
		b.locker.Lock()
		defer b.locker.Unlock()

		b.balances[key] = new(big.Int).Sub(b.balance(key), delta)
	})
}

// addAllowance must be called with the write lock held. Like addBalance, it
// journals the delta.
func (b *Book) addAllowance(
	ctx context.Context, key allowanceKey, delta *big.Int,
) {
	b.allowances[key] = new(big.Int).Add(b.allowance(key), delta)

	uow.JournalFromContext(ctx, txKey{}).OnRollback(func() {
		b.locker.Lock()
		defer b.locker.Unlock()

		b.allowances[key] = new(big.Int).Sub(b.allowance(key), delta)
	})
}

func isValidAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() >= 0
}

func isNullAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
