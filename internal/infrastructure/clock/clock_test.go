package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/internal/infrastructure/clock"
)

func TestManualClock(t *testing.T) {
	start := time.Unix(1700000000, 0)
	c := clock.NewManualClock(start)
	require.Equal(t, start, c.Now())

	now := c.Advance(time.Hour)
	require.Equal(t, start.Add(time.Hour), now)
	require.Equal(t, now, c.Now())

	c.Set(start)
	require.Equal(t, start, c.Now())
}

func TestSystemClock(t *testing.T) {
	now := clock.NewSystemClock().Now()
	require.Zero(t, now.Nanosecond())
	require.WithinDuration(t, time.Now(), now, 2*time.Second)
}
