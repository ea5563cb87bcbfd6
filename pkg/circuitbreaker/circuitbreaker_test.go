package circuitbreaker_test

import (
	"fmt"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/pkg/circuitbreaker"
)

func TestGroup(t *testing.T) {
	g := circuitbreaker.NewGroup()

	failing := func() (interface{}, error) {
		return nil, fmt.Errorf("endpoint unreachable")
	}
	ok := func() (interface{}, error) {
		return "ok", nil
	}

	for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
		_, err := g.Execute("http://down", failing)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, g.State("http://down"))

	_, err := g.Execute("http://down", ok)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	res, err := g.Execute("http://up", ok)
	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, gobreaker.StateClosed, g.State("http://up"))
	require.Equal(t, gobreaker.StateClosed, g.State("http://unknown"))
}
