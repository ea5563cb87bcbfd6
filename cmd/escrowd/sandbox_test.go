package main

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield/sharevault"
)

const sandboxFile = `
assets:
  usdc: "0x0000000000000000000000000000000000001005"
addresses:
  lending_pool: "0x000000000000000000000000000000000000bbb1"
pools:
  - address: "0x000000000000000000000000000000000000bbb1"
    reserves:
      - asset: USDC
        receipt: "0x0000000000000000000000000000000000002005"
        entry_fee: 100
        liquidity_index: "1.5"
`

func TestDefaultSandbox(t *testing.T) {
	ctx := context.Background()
	sb, err := newSandbox("")
	require.NoError(t, err)

	usdt, ok := sb.source.Asset(ctx, "USDT")
	require.True(t, ok)
	key, ok := sb.source.AssetKey(ctx, usdt)
	require.True(t, ok)
	require.Equal(t, "USDT", key)

	ref, ok := sb.source.String(ctx, "YIELD_DELEGATE_DAI")
	require.True(t, ok)
	require.Equal(t, sharevault.DelegateName, ref)

	poolAddr, ok := sb.source.Address(ctx, "LENDING_POOL")
	require.True(t, ok)
	pool, ok := sb.pools.Pool(poolAddr)
	require.True(t, ok)
	receipt, err := pool.ReceiptAsset(usdt)
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, receipt)

	comptrollerAddr, ok := sb.source.Address(ctx, "LENDING_POOL_DAI")
	require.True(t, ok)
	_, ok = sb.comptrollers.Comptroller(comptrollerAddr)
	require.True(t, ok)
}

func TestSandboxFromFile(t *testing.T) {
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "sandbox.yaml")
	err := os.WriteFile(filename, []byte(sandboxFile), 0644)
	require.NoError(t, err)

	sb, err := newSandbox(filename)
	require.NoError(t, err)

	usdc, ok := sb.source.Asset(ctx, "USDC")
	require.True(t, ok)
	_, ok = sb.source.Asset(ctx, "USDT")
	require.False(t, ok)

	poolAddr, ok := sb.source.Address(ctx, "LENDING_POOL")
	require.True(t, ok)
	pool, ok := sb.pools.Pool(poolAddr)
	require.True(t, ok)

	estimate, err := pool.RedeemEstimate(usdc, big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, "150", estimate.String())

}

func TestFailingSandbox(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "invalid_asset",
			content: "assets:\n  USDT: \"foo\"\n",
		},
		{
			name: "unknown_reserve_asset",
			content: `
pools:
  - address: "0x000000000000000000000000000000000000bbb1"
    reserves:
      - asset: USDT
        receipt: "0x0000000000000000000000000000000000002005"
`,
		},
		{
			name: "invalid_exchange_rate",
			content: `
assets:
  DAI: "0x0000000000000000000000000000000000001002"
comptrollers:
  - address: "0x000000000000000000000000000000000000ccc1"
    markets:
      - asset: DAI
        market: "0x0000000000000000000000000000000000003002"
        exchange_rate: "0"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "sandbox.yaml")
			err := os.WriteFile(filename, []byte(tt.content), 0644)
			require.NoError(t, err)

			_, err = newSandbox(filename)
			require.Error(t, err)
		})
	}
	_, err := newSandbox(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
