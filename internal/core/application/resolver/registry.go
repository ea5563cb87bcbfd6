package resolver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

// Registry holds the yield delegates and config sources wired at boot. Only
// registered entries can ever be selected by the policy.
type Registry struct {
	delegates     map[string]ports.YieldDelegate
	configSources map[string]ports.ConfigSource

	lock *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		delegates:     make(map[string]ports.YieldDelegate),
		configSources: make(map[string]ports.ConfigSource),
		lock:          &sync.RWMutex{},
	}
}

func (r *Registry) RegisterDelegate(delegate ports.YieldDelegate) error {
	if delegate == nil {
		return fmt.Errorf("missing yield delegate")
	}
	name := delegate.Name()
	if len(name) <= 0 {
		return fmt.Errorf("missing yield delegate name")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.delegates[name]; ok {
		return fmt.Errorf("yield delegate %s already registered", name)
	}
	r.delegates[name] = delegate
	return nil
}

func (r *Registry) RegisterConfigSource(source ports.ConfigSource) error {
	if source == nil {
		return fmt.Errorf("missing config source")
	}
	name := source.Name()
	if len(name) <= 0 {
		return fmt.Errorf("missing config source name")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.configSources[name]; ok {
		return fmt.Errorf("config source %s already registered", name)
	}
	r.configSources[name] = source
	return nil
}

// Delegate returns the delegate registered with the given reference, or
// ErrUnknownDelegate.
func (r *Registry) Delegate(ref string) (ports.YieldDelegate, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	d, ok := r.delegates[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDelegate, ref)
	}
	return d, nil
}

// ConfigSource returns the source registered with the given reference, or
// ErrUnknownConfigSource.
func (r *Registry) ConfigSource(ref string) (ports.ConfigSource, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	s, ok := r.configSources[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownConfigSource, ref)
	}
	return s, nil
}

func (r *Registry) DelegateRefs() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	refs := make([]string, 0, len(r.delegates))
	for ref := range r.delegates {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func (r *Registry) ConfigSourceRefs() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	refs := make([]string, 0, len(r.configSources))
	for ref := range r.configSources {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
