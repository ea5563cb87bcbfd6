package custody_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/infrastructure/custody"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

var (
	asset   = common.HexToAddress("0x0000000000000000000000000000000000001001")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	spender = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func TestBook(t *testing.T) {
	t.Run("mint_and_transfer", func(t *testing.T) {
		ctx := context.Background()
		book := custody.NewBook()

		err := book.Mint(ctx, asset, alice, big.NewInt(1000))
		require.NoError(t, err)

		err = book.Transfer(ctx, asset, alice, bob, big.NewInt(400))
		require.NoError(t, err)

		err = book.Transfer(ctx, asset, alice, bob, big.NewInt(601))
		require.ErrorIs(t, err, custody.ErrInsufficientBalance)

		err = book.Transfer(ctx, asset, alice, bob, big.NewInt(-1))
		require.ErrorIs(t, err, custody.ErrInvalidAmount)

		err = book.Transfer(ctx, asset, alice, common.Address{}, big.NewInt(1))
		require.ErrorIs(t, err, custody.ErrNullAddress)

		requireBalance(t, book, alice, 600)
		requireBalance(t, book, bob, 400)

		err = book.Burn(ctx, asset, bob, big.NewInt(400))
		require.NoError(t, err)
		requireBalance(t, book, bob, 0)
	})

	t.Run("transfer_from", func(t *testing.T) {
		ctx := context.Background()
		book := custody.NewBook()

		err := book.Mint(ctx, asset, alice, big.NewInt(1000))
		require.NoError(t, err)

		err = book.TransferFrom(ctx, asset, spender, alice, bob, big.NewInt(100))
		require.ErrorIs(t, err, custody.ErrInsufficientAllowance)

		err = book.Approve(ctx, asset, alice, spender, big.NewInt(2000))
		require.NoError(t, err)

		err = book.TransferFrom(ctx, asset, spender, alice, bob, big.NewInt(1001))
		require.ErrorIs(t, err, custody.ErrInsufficientBalance)

		err = book.TransferFrom(ctx, asset, spender, alice, bob, big.NewInt(1000))
		require.NoError(t, err)

		allowance, err := book.Allowance(ctx, asset, alice, spender)
		require.NoError(t, err)
		require.Equal(t, "1000", allowance.String())
		requireBalance(t, book, alice, 0)
		requireBalance(t, book, bob, 1000)
	})

	t.Run("rollback", func(t *testing.T) {
		book := custody.NewBook()
		err := book.Mint(context.Background(), asset, alice, big.NewInt(1000))
		require.NoError(t, err)
		err = book.Approve(context.Background(), asset, alice, spender, big.NewInt(500))
		require.NoError(t, err)

		unit := uow.NewUnitOfWork(book)
		err = unit.Run(context.Background(), func(ctx context.Context) error {
			if err := book.TransferFrom(
				ctx, asset, spender, alice, bob, big.NewInt(500),
			); err != nil {
				return err
			}
			if err := book.Mint(ctx, asset, bob, big.NewInt(1)); err != nil {
				return err
			}
			requireBalance(t, book, bob, 501)
			return fmt.Errorf("boom")
		})
		require.EqualError(t, err, "boom")

		requireBalance(t, book, alice, 1000)
		requireBalance(t, book, bob, 0)
		allowance, err := book.Allowance(context.Background(), asset, alice, spender)
		require.NoError(t, err)
		require.Equal(t, "500", allowance.String())
	})

	t.Run("rollback_keeps_writes_outside_tx", func(t *testing.T) {
		book := custody.NewBook()
		err := book.Mint(context.Background(), asset, alice, big.NewInt(1000))
		require.NoError(t, err)

		txCtx, tx, err := book.Begin(context.Background())
		require.NoError(t, err)

		err = book.Transfer(txCtx, asset, alice, bob, big.NewInt(400))
		require.NoError(t, err)

		// Concurrent write made without the transaction's context.
		err = book.Mint(context.Background(), asset, alice, big.NewInt(500))
		require.NoError(t, err)
		err = book.Mint(context.Background(), asset, bob, big.NewInt(7))
		require.NoError(t, err)
		requireBalance(t, book, alice, 1100)
		requireBalance(t, book, bob, 407)

		require.NoError(t, tx.Rollback())

		requireBalance(t, book, alice, 1500)
		requireBalance(t, book, bob, 7)
	})

	t.Run("concurrent_transfers", func(t *testing.T) {
		ctx := context.Background()
		book := custody.NewBook()
		err := book.Mint(ctx, asset, alice, big.NewInt(100))
		require.NoError(t, err)

		wg := &sync.WaitGroup{}
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				//nolint
				book.Transfer(ctx, asset, alice, bob, big.NewInt(1))
			}()
		}
		wg.Wait()

		requireBalance(t, book, alice, 0)
		requireBalance(t, book, bob, 100)
	})
}

func requireBalance(
	t *testing.T, book *custody.Book, holder common.Address, expected int64,
) {
	balance, err := book.BalanceOf(context.Background(), asset, holder)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(expected).String(), balance.String())
}
