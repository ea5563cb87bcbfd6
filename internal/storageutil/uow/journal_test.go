package uow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type journalKey struct{}

func TestJournal(t *testing.T) {
	t.Run("rollback", func(t *testing.T) {
		lock := &sync.Mutex{}
		values := []int{}

		ctx, j := BeginJournal(context.Background(), journalKey{}, lock)
		require.Equal(t, j, JournalFromContext(ctx, journalKey{}))

		for i := 0; i < 3; i++ {
			values = append(values, i)
			JournalFromContext(ctx, journalKey{}).OnRollback(func() {
				values = values[:len(values)-1]
			})
		}
		require.Len(t, values, 3)

		require.NoError(t, j.Rollback())
		require.Empty(t, values)
		require.ErrorIs(t, j.Commit(), ErrTxDone)
		require.Nil(t, JournalFromContext(ctx, journalKey{}))

		// The lock must have been released.
		require.True(t, lock.TryLock())
	})

	t.Run("commit", func(t *testing.T) {
		lock := &sync.Mutex{}
		reverted := false

		ctx, j := BeginJournal(context.Background(), journalKey{}, lock)
		JournalFromContext(ctx, journalKey{}).OnRollback(func() {
			reverted = true
		})

		require.NoError(t, j.Commit())
		require.ErrorIs(t, j.Rollback(), ErrTxDone)
		require.False(t, reverted)
		require.True(t, lock.TryLock())
	})

	t.Run("no_transaction", func(t *testing.T) {
		j := JournalFromContext(context.Background(), journalKey{})
		require.Nil(t, j)
		require.NotPanics(t, func() { j.OnRollback(func() {}) })
	})
}
