// Package resolver maps an underlying asset to its asset key and to the yield
// delegate binding that decides where the staged value is put to work.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

// DelegateKeyPrefix is the prefix of the config string overriding the default
// delegate of an asset, ie. YIELD_DELEGATE_USDT.
const DelegateKeyPrefix = "YIELD_DELEGATE"

var (
	// ErrAssetKeyNotFound is returned if the active config source cannot map
	// an asset to its key.
	ErrAssetKeyNotFound = errors.New("asset key not found")
	// ErrBindingUnresolved is returned if either the pool target or the
	// delegate of an asset key cannot be resolved.
	ErrBindingUnresolved = errors.New("delegate binding unresolved")
)

// Binding is the resolved strategy target of an asset key.
type Binding struct {
	AssetKey     string
	DelegateRef  string
	Delegate     ports.YieldDelegate
	Pool         common.Address
	ConfigSource ports.ConfigSource
}

// Resolver resolves asset keys and bindings against the config source
// selected by the given policy.
type Resolver struct {
	registry *Registry
}

func NewResolver(registry *Registry) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("missing registry")
	}
	return &Resolver{registry}, nil
}

func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ConfigSource returns the config source selected by the policy.
func (r *Resolver) ConfigSource(policy domain.Policy) (ports.ConfigSource, error) {
	return r.registry.ConfigSource(policy.ConfigSourceRef)
}

func (r *Resolver) ResolveAssetKey(
	ctx context.Context, policy domain.Policy, asset common.Address,
) (string, error) {
	source, err := r.ConfigSource(policy)
	if err != nil {
		return "", err
	}
	key, ok := source.AssetKey(ctx, asset)
	if !ok || len(key) <= 0 {
		return "", fmt.Errorf("%w: %s", ErrAssetKeyNotFound, asset.Hex())
	}
	return strings.ToUpper(key), nil
}

// ResolveDelegateBinding returns the pool and delegate for the given asset
// key. The pool is looked up as <prefix>_<KEY> first and then as <prefix>.
// The delegate is looked up as YIELD_DELEGATE_<KEY> first and then falls back
// to the default one of the policy.
func (r *Resolver) ResolveDelegateBinding(
	ctx context.Context, policy domain.Policy, assetKey string,
) (*Binding, error) {
	source, err := r.ConfigSource(policy)
	if err != nil {
		return nil, err
	}
	assetKey = strings.ToUpper(assetKey)

	prefix := policy.PoolKeyPrefix
	if len(prefix) <= 0 {
		prefix = domain.DefaultPoolKeyPrefix
	}
	pool, ok := source.Address(ctx, joinKey(prefix, assetKey))
	if !ok || isNullAddress(pool) {
		pool, ok = source.Address(ctx, prefix)
	}
	if !ok || isNullAddress(pool) {
		return nil, fmt.Errorf(
			"%w: no pool target for asset %s", ErrBindingUnresolved, assetKey,
		)
	}

	ref, ok := source.String(ctx, joinKey(DelegateKeyPrefix, assetKey))
	if !ok || len(ref) <= 0 {
		ref = policy.DelegateRef
	}
	if len(ref) <= 0 {
		return nil, fmt.Errorf(
			"%w: no delegate for asset %s", ErrBindingUnresolved, assetKey,
		)
	}
	delegate, err := r.registry.Delegate(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBindingUnresolved, err)
	}

	return &Binding{
		AssetKey:     assetKey,
		DelegateRef:  ref,
		Delegate:     delegate,
		Pool:         pool,
		ConfigSource: source,
	}, nil
}

func joinKey(prefix, key string) string {
	return fmt.Sprintf("%s_%s", prefix, key)
}

func isNullAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
