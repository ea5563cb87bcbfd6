package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SupplyRequest carries everything a delegate needs to place the underlying
// asset into its yield strategy.
type SupplyRequest struct {
	AssetKey    string
	Asset       common.Address
	Amount      *big.Int
	Beneficiary common.Address
	Pool        common.Address
	Config      ConfigSource
	// YieldAssetHint is the yield asset resolved before supplying.
	YieldAssetHint common.Address
}

// YieldDelegate is the strategy that knows how to talk to a specific yield
// protocol.
type YieldDelegate interface {
	Name() string
	// Supply places the requested amount, held by the given treasury, into the
	// strategy. The returned amount is what the delegate claims was credited to
	// the beneficiary and is only advisory.
	Supply(
		ctx context.Context, treasury Treasury, req SupplyRequest,
	) (*big.Int, error)
	// ResolveYieldAsset returns the yield-bearing asset minted by the strategy
	// for the given asset key.
	ResolveYieldAsset(
		ctx context.Context, assetKey string, pool common.Address,
		config ConfigSource,
	) (common.Address, error)
	// EstimateRedeemAmount returns the amount of underlying that would be
	// obtained by redeeming the given yield amount.
	EstimateRedeemAmount(
		ctx context.Context, assetKey string, yieldAmount *big.Int,
		pool common.Address, config ConfigSource,
	) (*big.Int, error)
}
