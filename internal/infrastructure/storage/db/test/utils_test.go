package db_test

import (
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	dbbadger "github.com/tdex-network/escrowd/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/escrowd/internal/infrastructure/storage/db/inmemory"
)

type repoManager struct {
	Name    string
	Manager ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	inmemoryDBManager := inmemory.NewRepoManager()
	badgerDBManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		inmemoryDBManager.Close()
		badgerDBManager.Close()
	})

	return []repoManager{
		{
			Name:    "badger",
			Manager: badgerDBManager,
		},
		{
			Name:    "inmemory",
			Manager: inmemoryDBManager,
		},
	}
}

func makeRandomDeposit(depositor, recipient common.Address) *domain.Deposit {
	d, _ := domain.NewDeposit(
		depositor, randomAddress(), big.NewInt(int64(randomIntInRange(1, 1000000))),
		randomAddress(), big.NewInt(int64(randomIntInRange(1, 1000000))),
		recipient, randomTimestamp(),
	)
	return d
}

func randomTimestamp() time.Time {
	return time.Unix(int64(randomIntInRange(1000000000, 1662688000)), 0)
}

func randomAddress() common.Address {
	return common.BytesToAddress(randomBytes(20))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

func randomIntInRange(min, max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min)))
	return int(n.Int64()) + min
}
