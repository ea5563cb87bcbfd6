package domain_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

func TestNewPolicy(t *testing.T) {
	t.Parallel()

	p := newTestPolicy(t)
	require.Equal(t, uint64(1), p.Version)
	require.Equal(t, owner, p.Owner)
	require.Equal(t, 72*time.Hour, p.RecoveryDelay)
	require.Equal(t, domain.DefaultPoolKeyPrefix, p.PoolKeyPrefix)
	require.False(t, p.WhitelistEnabled)
	require.True(t, p.CanClaim(stranger))

	_, err := domain.NewPolicy(common.Address{}, 0, "", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidPrincipal)

	_, err = domain.NewPolicy(owner, -time.Second, "", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidRecoveryDelay)
}

func TestPolicySetters(t *testing.T) {
	t.Parallel()

	t.Run("owner_only", func(t *testing.T) {
		t.Parallel()

		p := newTestPolicy(t)

		_, err := p.SetWhitelisted(stranger, recipient, true)
		require.ErrorIs(t, err, domain.ErrNotOwner)
		_, err = p.SetWhitelistEnabled(stranger, true)
		require.ErrorIs(t, err, domain.ErrNotOwner)
		_, err = p.SetRecoveryDelay(stranger, time.Hour)
		require.ErrorIs(t, err, domain.ErrNotOwner)
		_, err = p.SetDelegateRef(stranger, "share-vault")
		require.ErrorIs(t, err, domain.ErrNotOwner)
		_, err = p.SetConfigSourceRef(stranger, "file")
		require.ErrorIs(t, err, domain.ErrNotOwner)
		_, err = p.TransferOwnership(stranger, stranger)
		require.ErrorIs(t, err, domain.ErrNotOwner)

		require.Equal(t, uint64(1), p.Version)
	})

	t.Run("whitelist", func(t *testing.T) {
		t.Parallel()

		p := newTestPolicy(t)

		ev, err := p.SetWhitelisted(owner, recipient, true)
		require.NoError(t, err)
		require.Equal(t, recipient.Hex(), ev.Principal)
		require.True(t, ev.Allowed)
		require.True(t, p.IsWhitelisted(recipient))
		require.Len(t, p.WhitelistedPrincipals(), 1)

		st, err := p.SetWhitelistEnabled(owner, true)
		require.NoError(t, err)
		require.False(t, st.OldEnabled)
		require.True(t, st.NewEnabled)
		require.True(t, p.CanClaim(recipient))
		require.False(t, p.CanClaim(stranger))

		_, err = p.SetWhitelisted(owner, recipient, false)
		require.NoError(t, err)
		require.False(t, p.CanClaim(recipient))
		require.Equal(t, uint64(4), p.Version)
	})

	t.Run("recovery_delay", func(t *testing.T) {
		t.Parallel()

		p := newTestPolicy(t)
		ev, err := p.SetRecoveryDelay(owner, time.Hour)
		require.NoError(t, err)
		require.Equal(t, int64(72*3600), ev.OldDelay)
		require.Equal(t, int64(3600), ev.NewDelay)

		_, err = p.SetRecoveryDelay(owner, -time.Hour)
		require.ErrorIs(t, err, domain.ErrInvalidRecoveryDelay)
		require.Equal(t, time.Hour, p.RecoveryDelay)
	})

	t.Run("refs", func(t *testing.T) {
		t.Parallel()

		p := newTestPolicy(t)
		dev, err := p.SetDelegateRef(owner, "share-vault")
		require.NoError(t, err)
		require.Equal(t, "lending-pool", dev.OldDelegateRef)
		require.Equal(t, "share-vault", dev.NewDelegateRef)

		cev, err := p.SetConfigSourceRef(owner, "file")
		require.NoError(t, err)
		require.Equal(t, "static", cev.OldConfigRef)
		require.Equal(t, "file", cev.NewConfigRef)

		_, err = p.SetDelegateRef(owner, "")
		require.ErrorIs(t, err, domain.ErrUnknownDelegate)
		_, err = p.SetConfigSourceRef(owner, "")
		require.ErrorIs(t, err, domain.ErrUnknownConfigSource)
	})

	t.Run("ownership", func(t *testing.T) {
		t.Parallel()

		p := newTestPolicy(t)
		_, err := p.TransferOwnership(owner, common.Address{})
		require.ErrorIs(t, err, domain.ErrInvalidPrincipal)

		ev, err := p.TransferOwnership(owner, stranger)
		require.NoError(t, err)
		require.Equal(t, owner.Hex(), ev.PreviousOwner)
		require.Equal(t, stranger.Hex(), ev.NewOwner)

		_, err = p.SetWhitelistEnabled(owner, true)
		require.ErrorIs(t, err, domain.ErrNotOwner)
		_, err = p.SetWhitelistEnabled(stranger, true)
		require.NoError(t, err)
	})
}

func TestPolicyCopy(t *testing.T) {
	t.Parallel()

	p := newTestPolicy(t)
	cp := p.Copy()
	_, err := cp.SetWhitelisted(owner, recipient, true)
	require.NoError(t, err)
	require.False(t, p.IsWhitelisted(recipient))
}
