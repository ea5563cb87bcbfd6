package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

// Custody is the token ledger holding the balances of every principal, vault
// included. Write operations made with a context returned by Begin are rolled
// back along with the transaction.
type Custody interface {
	uow.Transactional

	BalanceOf(ctx context.Context, asset, holder common.Address) (*big.Int, error)
	Allowance(
		ctx context.Context, asset, owner, spender common.Address,
	) (*big.Int, error)
	Approve(
		ctx context.Context, asset, owner, spender common.Address, amount *big.Int,
	) error
	Transfer(
		ctx context.Context, asset, from, to common.Address, amount *big.Int,
	) error
	// TransferFrom moves amount from the given owner to the given recipient by
	// consuming the allowance granted to spender.
	TransferFrom(
		ctx context.Context, asset, spender, from, to common.Address,
		amount *big.Int,
	) error
}

// Minter is implemented by custody books that can issue new units of an
// asset, like the sandbox ones.
type Minter interface {
	Mint(ctx context.Context, asset, to common.Address, amount *big.Int) error
	Burn(ctx context.Context, asset, from common.Address, amount *big.Int) error
}

// Treasury is the capability handed to yield delegates to act on behalf of
// the vault principal.
type Treasury interface {
	Address() common.Address
	BalanceOf(ctx context.Context, asset common.Address) (*big.Int, error)
	Transfer(
		ctx context.Context, asset, to common.Address, amount *big.Int,
	) error
	Approve(
		ctx context.Context, asset, spender common.Address, amount *big.Int,
	) error
}
