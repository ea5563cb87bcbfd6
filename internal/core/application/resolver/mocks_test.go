package resolver_test

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

type mockDelegate struct {
	mock.Mock
	name string
}

func newMockDelegate(name string) *mockDelegate {
	return &mockDelegate{name: name}
}

func (m *mockDelegate) Name() string {
	return m.name
}

func (m *mockDelegate) Supply(
	ctx context.Context, treasury ports.Treasury, req ports.SupplyRequest,
) (*big.Int, error) {
	args := m.Called(ctx, treasury, req)

	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}

func (m *mockDelegate) ResolveYieldAsset(
	ctx context.Context, assetKey string, pool common.Address,
	config ports.ConfigSource,
) (common.Address, error) {
	args := m.Called(ctx, assetKey, pool, config)

	var res common.Address
	if a := args.Get(0); a != nil {
		res = a.(common.Address)
	}
	return res, args.Error(1)
}

func (m *mockDelegate) EstimateRedeemAmount(
	ctx context.Context, assetKey string, yieldAmount *big.Int,
	pool common.Address, config ports.ConfigSource,
) (*big.Int, error) {
	args := m.Called(ctx, assetKey, yieldAmount, pool, config)

	var res *big.Int
	if a := args.Get(0); a != nil {
		res = a.(*big.Int)
	}
	return res, args.Error(1)
}
