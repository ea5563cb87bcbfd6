package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ConfigSource is a read-only key/value store used to map assets to asset
// keys and to resolve the bindings of the yield strategies.
type ConfigSource interface {
	Name() string
	// AssetKey returns the key (ie. USDT) of the given asset.
	AssetKey(ctx context.Context, asset common.Address) (string, bool)
	// Asset returns the asset for the given key.
	Asset(ctx context.Context, key string) (common.Address, bool)
	// Address returns a named address, like a pool target.
	Address(ctx context.Context, name string) (common.Address, bool)
	// String returns a named string value, like a delegate reference.
	String(ctx context.Context, name string) (string, bool)
}
