package vault

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

type treasury struct {
	custody ports.Custody
	address common.Address
}

// NewTreasury returns the capability that lets a yield delegate move the
// funds of the given principal.
func NewTreasury(custody ports.Custody, address common.Address) ports.Treasury {
	return treasury{custody, address}
}

func (t treasury) Address() common.Address {
	return t.address
}

func (t treasury) BalanceOf(
	ctx context.Context, asset common.Address,
) (*big.Int, error) {
	return t.custody.BalanceOf(ctx, asset, t.address)
}

func (t treasury) Transfer(
	ctx context.Context, asset, to common.Address, amount *big.Int,
) error {
	return t.custody.Transfer(ctx, asset, t.address, to, amount)
}

func (t treasury) Approve(
	ctx context.Context, asset, spender common.Address, amount *big.Int,
) error {
	return t.custody.Approve(ctx, asset, t.address, spender, amount)
}
