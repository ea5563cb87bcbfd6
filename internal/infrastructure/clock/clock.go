// Package clock provides the ports.Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/tdex-network/escrowd/internal/core/ports"
)

type systemClock struct{}

// NewSystemClock returns a clock reading the wall time, truncated to seconds.
func NewSystemClock() ports.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// ManualClock is a clock that moves only when told to. It is used by tests
// and by the sandbox to fast-forward past the recovery delay.
type ManualClock struct {
	now  time.Time
	lock *sync.RWMutex
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now, &sync.RWMutex{}}
}

func (c *ManualClock) Now() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.now
}

func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.now = c.now.Add(d)
	return c.now
}

func (c *ManualClock) Set(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.now = now
}
