package vault

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tdex-network/escrowd/internal/core/domain"
)

const (
	// DefaultExternalCallWait is how long Enter waits for the lock while an
	// external call is running before reporting a reentrant call.
	DefaultExternalCallWait = 500 * time.Millisecond

	tryLockInterval = 5 * time.Millisecond
)

type inFlightKey struct{}

// Guard serializes every mutating operation of the vault and of its policy.
// It detects reentrant calls made by yield delegates both when they forward
// the context they were given and when they start from a fresh one.
type Guard struct {
	lock     sync.Mutex
	external atomic.Bool
	wait     time.Duration
}

// NewGuard returns a Guard that waits at most DefaultExternalCallWait for an
// external call to return.
func NewGuard() *Guard {
	return NewGuardWithWait(DefaultExternalCallWait)
}

func NewGuardWithWait(wait time.Duration) *Guard {
	if wait <= 0 {
		wait = DefaultExternalCallWait
	}
	return &Guard{wait: wait}
}

// Enter acquires the guard and returns a context flagged as in flight
// together with the func to release it.
// A call made while an external call holds the guard can't tell whether it's
// coming from the external callee or from a concurrent caller, therefore it
// waits for the external call to return at most the configured time, after
// which it fails with ErrReentrantCall.
func (g *Guard) Enter(ctx context.Context) (context.Context, func(), error) {
	if IsInFlight(ctx) {
		return nil, nil, domain.ErrReentrantCall
	}

	if !g.lock.TryLock() {
		if err := g.waitLock(ctx); err != nil {
			return nil, nil, err
		}
	}
	return markInFlight(ctx), g.lock.Unlock, nil
}

// External runs fn flagging the guard as busy with a call to code the vault
// does not control. It must be called with the guard held.
func (g *Guard) External(fn func()) {
	g.external.Store(true)
	defer g.external.Store(false)
	fn()
}

func (g *Guard) waitLock(ctx context.Context) error {
	deadline := time.NewTimer(g.wait)
	defer deadline.Stop()
	ticker := time.NewTicker(tryLockInterval)
	defer ticker.Stop()

	for {
		// A reentrant call always finds the external flag set, since the
		// callee can't return before it does. Any other caller can just block.
		if !g.external.Load() {
			g.lock.Lock()
			return nil
		}
		if g.lock.TryLock() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return domain.ErrReentrantCall
		case <-ticker.C:
		}
	}
}

// markInFlight flags the context as carrying a mutating operation still in
// progress. Every external call made by the engine receives such context.
func markInFlight(ctx context.Context) context.Context {
	return context.WithValue(ctx, inFlightKey{}, true)
}

// IsInFlight returns whether the given context belongs to a mutating
// operation still in progress.
func IsInFlight(ctx context.Context) bool {
	v, ok := ctx.Value(inFlightKey{}).(bool)
	return ok && v
}
