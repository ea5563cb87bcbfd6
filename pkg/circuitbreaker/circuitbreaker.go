package circuitbreaker

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests is the min number of requests, within a counting
	// interval, before a breaker can trip.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the ratio of failing requests that trips a breaker.
	FailingRatio = 0.6
)

// NewCircuitBreaker returns a *gobreaker.CircuitBreaker that trips once more
// than MaxNumOfFailingRequests requests were made and the ratio of failing
// ones reached FailingRatio. State changes are logged.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("breaker", name).Debugf(
				"circuit breaker state changed from %s to %s", from, to,
			)
		},
	})
}

// Group holds one breaker per named target so that a failing target does not
// affect the others.
type Group struct {
	breakers map[string]*gobreaker.CircuitBreaker
	lock     *sync.Mutex
}

func NewGroup() *Group {
	return &Group{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		lock:     &sync.Mutex{},
	}
}

// Execute runs req through the breaker of the given target, creating it if
// needed.
func (g *Group) Execute(
	target string, req func() (interface{}, error),
) (interface{}, error) {
	return g.get(target).Execute(req)
}

// State returns the state of the breaker of the given target. Unknown
// targets are reported as closed.
func (g *Group) State(target string) gobreaker.State {
	g.lock.Lock()
	defer g.lock.Unlock()

	cb, ok := g.breakers[target]
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

func (g *Group) get(target string) *gobreaker.CircuitBreaker {
	g.lock.Lock()
	defer g.lock.Unlock()

	cb, ok := g.breakers[target]
	if !ok {
		cb = NewCircuitBreaker(target)
		g.breakers[target] = cb
	}
	return cb
}
