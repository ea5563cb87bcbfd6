package stats_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/pkg/stats"
)

func TestObserve(t *testing.T) {
	success := stats.Operations.WithLabelValues(
		stats.OperationClaim, stats.OutcomeSuccess,
	)
	failure := stats.Operations.WithLabelValues(
		stats.OperationClaim, domain.KindNotFound,
	)
	before := testutil.ToFloat64(success)
	beforeFailure := testutil.ToFloat64(failure)

	stats.Observe(stats.OperationClaim, nil)
	stats.Observe(
		stats.OperationClaim, fmt.Errorf("%w: 3", domain.ErrDepositNotFound),
	)

	require.Equal(t, before+1, testutil.ToFloat64(success))
	require.Equal(t, beforeFailure+1, testutil.ToFloat64(failure))
}

func TestDumpMetrics(t *testing.T) {
	datadir := t.TempDir()
	stats.Observe(stats.OperationDeposit, nil)

	err := stats.DumpMetrics(datadir)
	require.NoError(t, err)

	buf, err := os.ReadFile(filepath.Join(datadir, "stats"))
	require.NoError(t, err)
	require.Contains(t, string(buf), "escrow_operations_total")
}
