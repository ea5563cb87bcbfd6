package sharevault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

// DelegateName is the reference under which the delegate is registered.
const DelegateName = "share-vault"

// ShareSymbol returns the symbol of the share token of the given asset key.
func ShareSymbol(assetKey string) string {
	return "c" + assetKey
}

type delegate struct {
	comptrollers *Directory
}

// NewDelegate returns a ports.YieldDelegate supplying to the markets of the
// comptrollers of the given directory.
func NewDelegate(comptrollers *Directory) ports.YieldDelegate {
	return &delegate{comptrollers}
}

func (d *delegate) Name() string {
	return DelegateName
}

func (d *delegate) Supply(
	ctx context.Context, treasury ports.Treasury, req ports.SupplyRequest,
) (*big.Int, error) {
	c, err := d.comptroller(req.Pool)
	if err != nil {
		return nil, err
	}
	m, err := c.Market(req.Asset)
	if err != nil {
		return nil, err
	}

	if err := treasury.Approve(ctx, req.Asset, m.Address, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to approve market: %w", err)
	}
	return c.Mint(ctx, treasury.Address(), req.Asset, req.Amount, req.Beneficiary)
}

func (d *delegate) ResolveYieldAsset(
	ctx context.Context, assetKey string, pool common.Address,
	config ports.ConfigSource,
) (common.Address, error) {
	m, err := d.market(ctx, assetKey, pool, config)
	if err != nil {
		return common.Address{}, err
	}
	return m.Address, nil
}

func (d *delegate) EstimateRedeemAmount(
	ctx context.Context, assetKey string, yieldAmount *big.Int,
	pool common.Address, config ports.ConfigSource,
) (*big.Int, error) {
	m, err := d.market(ctx, assetKey, pool, config)
	if err != nil {
		return nil, err
	}
	c, _ := d.comptroller(pool)
	return c.RedeemEstimate(m.Underlying, yieldAmount)
}

func (d *delegate) market(
	ctx context.Context, assetKey string, pool common.Address,
	config ports.ConfigSource,
) (Market, error) {
	c, err := d.comptroller(pool)
	if err != nil {
		return Market{}, err
	}
	underlying, ok := config.Asset(ctx, assetKey)
	if !ok {
		return Market{}, fmt.Errorf("asset %s not found", assetKey)
	}
	return c.Market(underlying)
}

func (d *delegate) comptroller(addr common.Address) (*Comptroller, error) {
	c, ok := d.comptrollers.Comptroller(addr)
	if !ok {
		return nil, fmt.Errorf("comptroller %s not found", addr.Hex())
	}
	return c, nil
}
