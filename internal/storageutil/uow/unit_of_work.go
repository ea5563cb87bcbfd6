package uow

import (
	"context"
	"errors"
	"fmt"
)

// ErrConflict is returned by a Tx that fails to commit because of a
// concurrent transaction. The whole unit of work can be safely retried.
var ErrConflict = errors.New("transaction conflict")

// Transactional begins a transaction. The returned context carries the
// transaction and must be used for every read/write operation that is meant
// to be part of it.
type Transactional interface {
	Begin(ctx context.Context) (context.Context, Tx, error)
}

// Tx represents an all-or-nothing transaction, by committing or rolling back
// a set of read/write operations
type Tx interface {
	Commit() error
	Rollback() error
}

type activeKey struct{}

// UnitOfWork allows to run multiple transactions as one
type UnitOfWork struct {
	participants []Transactional
}

// NewUnitOfWork returns a new UnitOfWork with the given Transactional
// participants. Transactions are begun and committed in the given order.
func NewUnitOfWork(participants ...Transactional) *UnitOfWork {
	return &UnitOfWork{participants}
}

// Run executes the given function over the current UnitOfWork. The given
// function is likely making read/write operations to different repositories in
// a transactional way. Run makes sure that all the transactions within the
// given function are either all committed to the relative storage or rolled
// back if any error occur.
// If the given context already belongs to a running unit of work, fn joins it.
func (u *UnitOfWork) Run(
	ctx context.Context, fn func(ctx context.Context) error,
) (err error) {
	if IsActive(ctx) {
		return fn(ctx)
	}

	txs := make([]Tx, 0, len(u.participants))
	committed := 0

	defer func() {
		if err == nil {
			return
		}
		for _, tx := range txs[committed:] {
			if _err := tx.Rollback(); _err != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, _err)
				return
			}
		}
	}()

	defer func() {
		if err != nil {
			return
		}
		for _, tx := range txs {
			if _err := tx.Commit(); _err != nil {
				err = _err
				return
			}
			committed++
		}
	}()

	defer func() {
		// panicking returns an error that causes txs rollback
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recovered: %v", rec)
		}
	}()

	txCtx := context.WithValue(ctx, activeKey{}, true)
	for _, p := range u.participants {
		var tx Tx
		txCtx, tx, err = p.Begin(txCtx)
		if err != nil {
			return err
		}
		txs = append(txs, tx)
	}

	return fn(txCtx)
}

// RunWithRetry is like Run but runs fn again, up to the given number of
// attempts, as long as a participant fails to commit with ErrConflict.
func (u *UnitOfWork) RunWithRetry(
	ctx context.Context, attempts int, fn func(ctx context.Context) error,
) (err error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err = u.Run(ctx, fn); !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}

// IsActive returns whether the given context belongs to a running unit of work.
func IsActive(ctx context.Context) bool {
	active, _ := ctx.Value(activeKey{}).(bool)
	return active
}
