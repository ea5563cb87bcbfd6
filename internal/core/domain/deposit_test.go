package domain_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

var (
	depositor  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	recipient  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	stranger   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	underlying = common.HexToAddress("0x0000000000000000000000000000000000001001")
	yieldAsset = common.HexToAddress("0x0000000000000000000000000000000000002002")
	createdAt  = time.Unix(1700000000, 0)
)

func TestNewDeposit(t *testing.T) {
	t.Parallel()

	amount := big.NewInt(1000)
	yieldAmount := big.NewInt(950)

	d, err := domain.NewDeposit(
		depositor, underlying, amount, yieldAsset, yieldAmount, recipient,
		createdAt,
	)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.True(t, d.Exists())
	require.False(t, d.IsUsed())
	require.Equal(t, domain.DepositStatusCreated, d.Status)
	require.Equal(t, "1000", d.Amount.String())
	require.Equal(t, "950", d.YieldAmount.String())

	// Amounts must be copied.
	amount.SetInt64(1)
	require.Equal(t, "1000", d.Amount.String())
}

func TestFailingNewDeposit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		depositor     common.Address
		underlying    common.Address
		amount        *big.Int
		yieldAsset    common.Address
		yieldAmount   *big.Int
		recipient     common.Address
		expectedError error
	}{
		{
			name:          "null_depositor",
			underlying:    underlying,
			amount:        big.NewInt(1),
			yieldAsset:    yieldAsset,
			yieldAmount:   big.NewInt(1),
			recipient:     recipient,
			expectedError: domain.ErrInvalidPrincipal,
		},
		{
			name:          "null_underlying",
			depositor:     depositor,
			amount:        big.NewInt(1),
			yieldAsset:    yieldAsset,
			yieldAmount:   big.NewInt(1),
			recipient:     recipient,
			expectedError: domain.ErrInvalidAsset,
		},
		{
			name:          "zero_amount",
			depositor:     depositor,
			underlying:    underlying,
			amount:        big.NewInt(0),
			yieldAsset:    yieldAsset,
			yieldAmount:   big.NewInt(1),
			recipient:     recipient,
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:          "nil_amount",
			depositor:     depositor,
			underlying:    underlying,
			yieldAsset:    yieldAsset,
			yieldAmount:   big.NewInt(1),
			recipient:     recipient,
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:          "null_yield_asset",
			depositor:     depositor,
			underlying:    underlying,
			amount:        big.NewInt(1),
			yieldAmount:   big.NewInt(1),
			recipient:     recipient,
			expectedError: domain.ErrYieldAssetNotFound,
		},
		{
			name:          "zero_yield_amount",
			depositor:     depositor,
			underlying:    underlying,
			amount:        big.NewInt(1),
			yieldAsset:    yieldAsset,
			yieldAmount:   big.NewInt(0),
			recipient:     recipient,
			expectedError: domain.ErrNoYieldReceived,
		},
		{
			name:          "null_recipient",
			depositor:     depositor,
			underlying:    underlying,
			amount:        big.NewInt(1),
			yieldAsset:    yieldAsset,
			yieldAmount:   big.NewInt(1),
			expectedError: domain.ErrInvalidPrincipal,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := domain.NewDeposit(
				tt.depositor, tt.underlying, tt.amount, tt.yieldAsset,
				tt.yieldAmount, tt.recipient, createdAt,
			)
			require.ErrorIs(t, err, tt.expectedError)
			require.Nil(t, d)
		})
	}
}

func TestDepositClaim(t *testing.T) {
	t.Parallel()

	policy := newTestPolicy(t)
	now := createdAt.Add(time.Minute)

	t.Run("claim", func(t *testing.T) {
		t.Parallel()

		d := newTestDeposit(t)
		err := d.Claim(recipient, *policy, now)
		require.NoError(t, err)
		require.True(t, d.IsUsed())
		require.Equal(t, domain.DepositStatusClaimed, d.Status)
		require.Equal(t, now, d.ResolvedAt)
	})

	t.Run("claim_with_whitelist", func(t *testing.T) {
		t.Parallel()

		p := policy.Copy()
		_, err := p.SetWhitelistEnabled(owner, true)
		require.NoError(t, err)

		d := newTestDeposit(t)
		err = d.Claim(recipient, p, now)
		require.ErrorIs(t, err, domain.ErrNotWhitelisted)
		require.False(t, d.IsUsed())

		_, err = p.SetWhitelisted(owner, recipient, true)
		require.NoError(t, err)

		err = d.Claim(recipient, p, now)
		require.NoError(t, err)
		require.True(t, d.IsUsed())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name          string
			deposit       func() *domain.Deposit
			claimant      common.Address
			expectedError error
		}{
			{
				name: "missing_deposit",
				deposit: func() *domain.Deposit {
					return &domain.Deposit{}
				},
				claimant:      recipient,
				expectedError: domain.ErrDepositNotFound,
			},
			{
				name: "already_used",
				deposit: func() *domain.Deposit {
					d := newTestDeposit(t)
					d.Used = true
					return d
				},
				claimant:      recipient,
				expectedError: domain.ErrDepositAlreadyUsed,
			},
			{
				name: "not_intended_recipient",
				deposit: func() *domain.Deposit {
					return newTestDeposit(t)
				},
				claimant:      stranger,
				expectedError: domain.ErrNotIntendedRecipient,
			},
		}

		for _, tt := range tests {
			err := tt.deposit().Claim(tt.claimant, *policy, now)
			require.ErrorIs(t, err, tt.expectedError, tt.name)
		}
	})
}

func TestDepositRecover(t *testing.T) {
	t.Parallel()

	policy := newTestPolicy(t)
	recoverableAt := createdAt.Add(policy.RecoveryDelay)

	t.Run("recover_at_boundary", func(t *testing.T) {
		t.Parallel()

		d := newTestDeposit(t)
		err := d.Recover(depositor, *policy, recoverableAt.Add(-time.Second))
		require.ErrorIs(t, err, domain.ErrRecoveryNotAvailable)
		require.False(t, d.IsUsed())

		err = d.Recover(depositor, *policy, recoverableAt)
		require.NoError(t, err)
		require.True(t, d.IsUsed())
		require.Equal(t, domain.DepositStatusRecovered, d.Status)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		d := newTestDeposit(t)
		err := d.Recover(stranger, *policy, recoverableAt)
		require.ErrorIs(t, err, domain.ErrNotDepositor)

		d.Used = true
		err = d.Recover(depositor, *policy, recoverableAt)
		require.ErrorIs(t, err, domain.ErrDepositAlreadyUsed)

		err = (&domain.Deposit{}).Recover(depositor, *policy, recoverableAt)
		require.ErrorIs(t, err, domain.ErrDepositNotFound)
	})

	t.Run("recover_with_zero_delay", func(t *testing.T) {
		t.Parallel()

		p := policy.Copy()
		_, err := p.SetRecoveryDelay(owner, 0)
		require.NoError(t, err)

		d := newTestDeposit(t)
		err = d.Recover(depositor, p, createdAt)
		require.NoError(t, err)
	})
}

func TestDepositCopy(t *testing.T) {
	t.Parallel()

	d := newTestDeposit(t)
	cp := d.Copy()
	cp.YieldAmount.SetInt64(1)
	require.Equal(t, "950", d.YieldAmount.String())
}

func newTestDeposit(t *testing.T) *domain.Deposit {
	d, err := domain.NewDeposit(
		depositor, underlying, big.NewInt(1000), yieldAsset, big.NewInt(950),
		recipient, createdAt,
	)
	require.NoError(t, err)
	return d
}

func newTestPolicy(t *testing.T) *domain.Policy {
	p, err := domain.NewPolicy(
		owner, domain.DefaultRecoveryDelay, "static", "lending-pool", "",
	)
	require.NoError(t, err)
	return p
}
