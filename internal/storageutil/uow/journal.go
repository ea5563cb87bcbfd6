package uow

import (
	"context"
	"errors"
	"sync"
)

// ErrTxDone is returned when committing or rolling back a transaction that
// is already closed.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// Journal is a Tx for in-memory stores. Writes register the closures that
// revert them, which are run in reverse order on rollback.
// A Journal holds the lock given at creation until it's closed, therefore
// transactions over the same store are serialized.
type Journal struct {
	lock sync.Locker
	mu   sync.Mutex
	undo []func()
	done bool
}

// BeginJournal acquires the given lock and returns a new Journal stored in the
// returned context under the given key.
func BeginJournal(
	ctx context.Context, key interface{}, lock sync.Locker,
) (context.Context, *Journal) {
	lock.Lock()
	j := &Journal{lock: lock}
	return context.WithValue(ctx, key, j), j
}

// JournalFromContext returns the open Journal stored under the given key, if
// any.
func JournalFromContext(ctx context.Context, key interface{}) *Journal {
	if ctx == nil {
		return nil
	}
	j, ok := ctx.Value(key).(*Journal)
	if !ok || j.isDone() {
		return nil
	}
	return j
}

// OnRollback registers a closure that reverts a change. It's a no-op for a nil
// Journal so that stores can call it also outside of a transaction.
func (j *Journal) OnRollback(fn func()) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, fn)
}

func (j *Journal) Commit() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.done {
		return ErrTxDone
	}
	j.done = true
	j.undo = nil
	j.lock.Unlock()
	return nil
}

func (j *Journal) Rollback() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.done {
		return ErrTxDone
	}
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.done = true
	j.undo = nil
	j.lock.Unlock()
	return nil
}

func (j *Journal) isDone() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}
