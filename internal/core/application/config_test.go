package application_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/application"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/infrastructure/clock"
	"github.com/tdex-network/escrowd/internal/infrastructure/configsource/inmemory"
	"github.com/tdex-network/escrowd/internal/infrastructure/custody"
	"github.com/tdex-network/escrowd/internal/infrastructure/pubsub"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield/lendingpool"
)

var (
	vaultAddr  = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	poolAddr   = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
	depositorA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	recipientB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000d4")
	assetU     = common.HexToAddress("0x0000000000000000000000000000000000001001")
	assetY     = common.HexToAddress("0x0000000000000000000000000000000000002002")
)

func TestConfig(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		cfg := newTestConfig(t, application.DBInMemory, nil, custody.NewBook())
		require.NotNil(t, cfg.VaultService())
		require.NotNil(t, cfg.AdminService())
		require.NotNil(t, cfg.PubSubService())
		require.NotNil(t, cfg.RepoManager())
	})

	t.Run("invalid_db_type", func(t *testing.T) {
		cfg := &application.Config{DBType: "postgres"}
		require.Error(t, cfg.Validate())
	})
}

func TestClaimsWithConcurrentPolicyUpdates(t *testing.T) {
	const numOfDeposits = 10

	ctx := context.Background()
	book := custody.NewBook()
	cfg := newTestConfig(t, application.DBBadger, t.TempDir(), book)
	vaultSvc, adminSvc := cfg.VaultService(), cfg.AdminService()

	err := book.Mint(ctx, assetU, depositorA, big.NewInt(1000*numOfDeposits))
	require.NoError(t, err)
	err = book.Approve(
		ctx, assetU, depositorA, vaultAddr, big.NewInt(1000*numOfDeposits),
	)
	require.NoError(t, err)

	ids := make([]uint64, 0, numOfDeposits)
	for i := 0; i < numOfDeposits; i++ {
		id, err := vaultSvc.Deposit(
			ctx, depositorA, assetU, big.NewInt(1000), recipientB,
		)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	stop := make(chan struct{})
	adminDone := make(chan struct{})
	go func() {
		defer close(adminDone)
		allowed := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			allowed = !allowed
			if err := adminSvc.SetWhitelisted(
				ctx, owner, recipientB, allowed,
			); err != nil {
				t.Errorf("failed to update whitelist: %s", err)
				return
			}
			if err := adminSvc.SetWhitelistEnabled(ctx, owner, !allowed); err != nil {
				t.Errorf("failed to update whitelist status: %s", err)
				return
			}
			if err := adminSvc.SetRecoveryDelay(
				ctx, owner, domain.DefaultRecoveryDelay,
			); err != nil {
				t.Errorf("failed to update recovery delay: %s", err)
				return
			}
		}
	}()

	wg := &sync.WaitGroup{}
	for _, id := range ids {
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(id uint64) {
				defer wg.Done()
				err := vaultSvc.Claim(ctx, recipientB, id)
				if err == nil ||
					errors.Is(err, domain.ErrNotWhitelisted) ||
					errors.Is(err, domain.ErrDepositAlreadyUsed) {
					return
				}
				t.Errorf("unexpected error claiming deposit %d: %s", id, err)
			}(id)
		}
	}
	wg.Wait()
	close(stop)
	<-adminDone

	used := int64(0)
	for _, id := range ids {
		d, err := vaultSvc.GetDeposit(ctx, id)
		require.NoError(t, err)
		if d.Used {
			used++
		}
	}

	paid, err := book.BalanceOf(ctx, assetY, recipientB)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(950*used).String(), paid.String())

	held, err := book.BalanceOf(ctx, assetY, vaultAddr)
	require.NoError(t, err)
	require.Equal(
		t, big.NewInt(950*(numOfDeposits-used)).String(), held.String(),
	)

	claimable, err := vaultSvc.GetClaimableCount(ctx, recipientB)
	require.NoError(t, err)
	require.Equal(t, numOfDeposits-int(used), claimable)
}

func newTestConfig(
	t *testing.T, dbType string, dbConfig interface{}, book *custody.Book,
) *application.Config {
	pool := lendingpool.NewPool(poolAddr, book)
	err := pool.AddReserve(assetU, assetY, 500)
	require.NoError(t, err)

	source := inmemory.NewSource("static")
	source.SetAsset("USDT", assetU)
	source.SetAddress(domain.DefaultPoolKeyPrefix, poolAddr)

	ps, err := pubsub.NewService("", pubsub.DefaultRateLimit, nil)
	require.NoError(t, err)

	cfg := &application.Config{
		DBType:   dbType,
		DBConfig: dbConfig,
		Custody:  book,
		PubSub:   ps,
		Clock:    clock.NewManualClock(time.Unix(1700000000, 0)),
		Delegates: []ports.YieldDelegate{
			lendingpool.NewDelegate(lendingpool.NewDirectory(pool)),
		},
		ConfigSources: []ports.ConfigSource{source},
		ChainID:       11155111,
		VaultAddress:  vaultAddr,
	}
	require.NoError(t, cfg.Validate())
	t.Cleanup(cfg.Close)

	policy, err := domain.NewPolicy(
		owner, domain.DefaultRecoveryDelay, "static", lendingpool.DelegateName, "",
	)
	require.NoError(t, err)
	_, err = cfg.AdminService().InitPolicy(context.Background(), policy)
	require.NoError(t, err)

	return cfg
}
