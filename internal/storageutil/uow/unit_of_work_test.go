package uow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tx struct {
	value       string
	committed   bool
	rolledBack  bool
	commitErr   error
	rollbackErr error
}

func (t *tx) Commit() error {
	t.committed = true
	return t.commitErr
}

func (t *tx) Rollback() error {
	t.rolledBack = true
	return t.rollbackErr
}

type foo struct {
	tx       tx
	value    string
	beginErr error
	panic    interface{}
	err      error
}

func (f *foo) Begin(ctx context.Context) (context.Context, Tx, error) {
	if f.beginErr != nil {
		return ctx, nil, f.beginErr
	}
	return context.WithValue(ctx, f, &f.tx), &f.tx, nil
}

func (f *foo) Foo(ctx context.Context) (string, error) {
	if f.panic != nil {
		panic(f.panic)
	}
	val := f.value
	if tx, ok := ctx.Value(f).(*tx); ok {
		val = tx.value
	}
	return val, f.err
}

func TestUOWRun(t *testing.T) {
	tests := []struct {
		name          string
		a             *foo
		b             *foo
		expectedError error
		txaCommitted  bool
		txbCommitted  bool
		txaRolledBack bool
		txbRolledBack bool
		expectedValue string
	}{
		{
			name:          "commit",
			a:             &foo{value: "a", tx: tx{value: "tx a"}},
			b:             &foo{value: "b", tx: tx{value: "tx b"}},
			txaCommitted:  true,
			txbCommitted:  true,
			expectedValue: "tx b",
		},
		{
			name:          "first_begin_fails",
			a:             &foo{value: "a", tx: tx{value: "tx a"}, beginErr: fmt.Errorf("begin err")},
			b:             &foo{value: "b", tx: tx{value: "tx b"}},
			expectedError: fmt.Errorf("begin err"),
		},
		{
			name:          "second_begin_fails",
			a:             &foo{value: "a", tx: tx{value: "tx a"}},
			b:             &foo{value: "b", tx: tx{value: "tx b"}, beginErr: fmt.Errorf("begin err")},
			expectedError: fmt.Errorf("begin err"),
			txaRolledBack: true,
		},
		{
			name:          "first_op_fails",
			a:             &foo{value: "a", tx: tx{value: "tx a"}, err: fmt.Errorf("boom a")},
			b:             &foo{value: "b", tx: tx{value: "tx b"}},
			expectedError: fmt.Errorf("boom a"),
			txaRolledBack: true,
			txbRolledBack: true,
			expectedValue: "tx a",
		},
		{
			name:          "second_op_fails",
			a:             &foo{value: "a", tx: tx{value: "tx a"}},
			b:             &foo{value: "b", tx: tx{value: "tx b"}, err: fmt.Errorf("boom b")},
			expectedError: fmt.Errorf("boom b"),
			txaRolledBack: true,
			txbRolledBack: true,
			expectedValue: "tx b",
		},
		{
			name:          "first_commit_fails",
			a:             &foo{value: "a", tx: tx{value: "tx a", commitErr: fmt.Errorf("a commit err")}},
			b:             &foo{value: "b", tx: tx{value: "tx b"}},
			expectedError: fmt.Errorf("a commit err"),
			txaCommitted:  true,
			txaRolledBack: true,
			txbRolledBack: true,
			expectedValue: "tx b",
		},
		{
			name:          "second_commit_fails",
			a:             &foo{value: "a", tx: tx{value: "tx a"}},
			b:             &foo{value: "b", tx: tx{value: "tx b", commitErr: fmt.Errorf("b commit err")}},
			expectedError: fmt.Errorf("b commit err"),
			txaCommitted:  true,
			txbCommitted:  true,
			txbRolledBack: true,
			expectedValue: "tx b",
		},
		{
			name:          "panic",
			a:             &foo{value: "a", tx: tx{value: "tx a"}},
			b:             &foo{value: "b", tx: tx{value: "tx b"}, panic: "boom"},
			expectedError: fmt.Errorf("recovered: boom"),
			txaRolledBack: true,
			txbRolledBack: true,
			expectedValue: "tx a",
		},
		{
			name:          "panic_with_error",
			a:             &foo{value: "a", tx: tx{value: "tx a"}},
			b:             &foo{value: "b", tx: tx{value: "tx b"}, panic: fmt.Errorf("boom")},
			expectedError: fmt.Errorf("recovered: boom"),
			txaRolledBack: true,
			txbRolledBack: true,
			expectedValue: "tx a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ""

			unit := NewUnitOfWork(tt.a, tt.b)

			err := unit.Run(context.Background(), func(ctx context.Context) error {
				var err error
				result, err = tt.a.Foo(ctx)
				if err != nil {
					return err
				}
				result, err = tt.b.Foo(ctx)
				if err != nil {
					return err
				}
				return nil
			})
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.txaCommitted, tt.a.tx.committed)
			assert.Equal(t, tt.txbCommitted, tt.b.tx.committed)
			assert.Equal(t, tt.txaRolledBack, tt.a.tx.rolledBack)
			assert.Equal(t, tt.txbRolledBack, tt.b.tx.rolledBack)
			assert.Equal(t, tt.expectedValue, result)
		})
	}
}

func TestUOWNestedRun(t *testing.T) {
	a := &foo{value: "a", tx: tx{value: "tx a"}}
	unit := NewUnitOfWork(a)

	err := unit.Run(context.Background(), func(ctx context.Context) error {
		require.True(t, IsActive(ctx))
		return unit.Run(ctx, func(ctx context.Context) error {
			val, err := a.Foo(ctx)
			require.Equal(t, "tx a", val)
			return err
		})
	})
	require.NoError(t, err)
	require.True(t, a.tx.committed)
	require.False(t, a.tx.rolledBack)
	require.False(t, IsActive(context.Background()))
}

type conflictingTx struct {
	conflicts int
	commits   int
	rollbacks int
}

func (t *conflictingTx) Begin(ctx context.Context) (context.Context, Tx, error) {
	return ctx, t, nil
}

func (t *conflictingTx) Commit() error {
	t.commits++
	if t.commits <= t.conflicts {
		return fmt.Errorf("%w: retry", ErrConflict)
	}
	return nil
}

func (t *conflictingTx) Rollback() error {
	t.rollbacks++
	return nil
}

func TestUOWRunWithRetry(t *testing.T) {
	tests := []struct {
		name          string
		conflicts     int
		opErr         error
		expectedRuns  int
		expectedError error
	}{
		{
			name:         "no_conflict",
			expectedRuns: 1,
		},
		{
			name:         "conflict_then_commit",
			conflicts:    2,
			expectedRuns: 3,
		},
		{
			name:          "too_many_conflicts",
			conflicts:     5,
			expectedRuns:  3,
			expectedError: ErrConflict,
		},
		{
			name:          "other_errors_are_not_retried",
			opErr:         fmt.Errorf("boom"),
			expectedRuns:  1,
			expectedError: fmt.Errorf("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &conflictingTx{conflicts: tt.conflicts}
			journal := &foo{value: "j", tx: tx{value: "tx j"}}
			unit := NewUnitOfWork(db, journal)

			runs := 0
			err := unit.RunWithRetry(context.Background(), 3, func(ctx context.Context) error {
				runs++
				return tt.opErr
			})
			require.Equal(t, tt.expectedRuns, runs)
			if tt.expectedError == nil {
				require.NoError(t, err)
				require.True(t, journal.tx.committed)
				return
			}
			require.Error(t, err)
			if errors.Is(tt.expectedError, ErrConflict) {
				require.ErrorIs(t, err, ErrConflict)
				// The journal is never committed when the db fails to commit.
				require.False(t, journal.tx.committed)
				require.True(t, journal.tx.rolledBack)
				return
			}
			require.EqualError(t, err, tt.expectedError.Error())
		})
	}
}
