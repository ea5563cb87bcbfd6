package lendingpool

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

// DelegateName is the reference under which the delegate is registered.
const DelegateName = "lending-pool"

// ReceiptSymbol returns the symbol of the receipt of the given asset key.
func ReceiptSymbol(assetKey string) string {
	return "a" + assetKey
}

type delegate struct {
	pools *Directory
}

// NewDelegate returns a ports.YieldDelegate supplying to the pools of the
// given directory.
func NewDelegate(pools *Directory) ports.YieldDelegate {
	return &delegate{pools}
}

func (d *delegate) Name() string {
	return DelegateName
}

func (d *delegate) Supply(
	ctx context.Context, treasury ports.Treasury, req ports.SupplyRequest,
) (*big.Int, error) {
	pool, err := d.pool(req.Pool)
	if err != nil {
		return nil, err
	}

	if err := treasury.Approve(ctx, req.Asset, pool.Address(), req.Amount); err != nil {
		return nil, fmt.Errorf("failed to approve pool: %w", err)
	}
	return pool.Supply(
		ctx, treasury.Address(), req.Asset, req.Amount, req.Beneficiary,
	)
}

func (d *delegate) ResolveYieldAsset(
	ctx context.Context, assetKey string, poolAddr common.Address,
	config ports.ConfigSource,
) (common.Address, error) {
	pool, err := d.pool(poolAddr)
	if err != nil {
		return common.Address{}, err
	}
	underlying, ok := config.Asset(ctx, assetKey)
	if !ok {
		return common.Address{}, fmt.Errorf("asset %s not found", assetKey)
	}
	return pool.ReceiptAsset(underlying)
}

func (d *delegate) EstimateRedeemAmount(
	ctx context.Context, assetKey string, yieldAmount *big.Int,
	poolAddr common.Address, config ports.ConfigSource,
) (*big.Int, error) {
	pool, err := d.pool(poolAddr)
	if err != nil {
		return nil, err
	}
	underlying, ok := config.Asset(ctx, assetKey)
	if !ok {
		return nil, fmt.Errorf("asset %s not found", assetKey)
	}
	return pool.RedeemEstimate(underlying, yieldAmount)
}

func (d *delegate) pool(addr common.Address) (*Pool, error) {
	pool, ok := d.pools.Pool(addr)
	if !ok {
		return nil, fmt.Errorf("lending pool %s not found", addr.Hex())
	}
	return pool, nil
}
