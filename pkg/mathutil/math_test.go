package mathutil_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/pkg/mathutil"
)

func TestLessFee(t *testing.T) {
	tests := []struct {
		amount      int64
		fee         uint32
		expectedNet string
		expectedFee string
	}{
		{1000, 500, "950", "50"},
		{1000, 0, "1000", "0"},
		{999, 25, "997", "2"},
		{1, 100, "1", "0"},
	}

	for _, tt := range tests {
		net, fee := mathutil.LessFee(big.NewInt(tt.amount), tt.fee)
		require.Equal(t, tt.expectedNet, net.String())
		require.Equal(t, tt.expectedFee, fee.String())
	}
}

func TestRates(t *testing.T) {
	rate := decimal.RequireFromString("1.02")

	shares, err := mathutil.DivRate(big.NewInt(1000), rate)
	require.NoError(t, err)
	require.Equal(t, "980", shares.String())

	require.Equal(t, "999", mathutil.MulRate(shares, rate).String())

	_, err = mathutil.DivRate(big.NewInt(1000), decimal.Zero)
	require.Error(t, err)
}

func TestUnits(t *testing.T) {
	units, err := mathutil.ToUnits(decimal.RequireFromString("10.5"), 6)
	require.NoError(t, err)
	require.Equal(t, "10500000", units.String())

	_, err = mathutil.ToUnits(decimal.RequireFromString("0.0000001"), 6)
	require.Error(t, err)

	require.Equal(t, "10.5", mathutil.FromUnits(units, 6).String())
}
