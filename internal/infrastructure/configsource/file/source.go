// Package file implements a ports.ConfigSource read from a config file with
// viper. The file is watched and reloaded on change.
//
// Example of YAML file:
//
//	assets:
//	  USDT: "0x..."
//	addresses:
//	  LENDING_POOL: "0x..."
//	  LENDING_POOL_USDT: "0x..."
//	strings:
//	  YIELD_DELEGATE_USDT: "share-vault"
package file

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

const (
	assetsKey    = "assets"
	addressesKey = "addresses"
	stringsKey   = "strings"
)

type snapshot struct {
	keys      map[common.Address]string
	assets    map[string]common.Address
	addresses map[string]common.Address
	strings   map[string]string
}

type source struct {
	name string
	vip  *viper.Viper

	lock     *sync.RWMutex
	snapshot snapshot
}

// NewSource reads the given config file and returns a ports.ConfigSource
// with the given name. If watch is true, the file is reloaded at every change.
func NewSource(name, filename string, watch bool) (ports.ConfigSource, error) {
	if len(filename) <= 0 {
		return nil, fmt.Errorf("missing config file")
	}

	vip := viper.New()
	vip.SetConfigFile(filename)
	if err := vip.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	snap, err := parse(vip)
	if err != nil {
		return nil, err
	}

	s := &source{
		name:     name,
		vip:      vip,
		lock:     &sync.RWMutex{},
		snapshot: snap,
	}

	if watch {
		vip.OnConfigChange(s.reload)
		vip.WatchConfig()
	}

	return s, nil
}

func (s *source) Name() string {
	return s.name
}

func (s *source) AssetKey(_ context.Context, asset common.Address) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	key, ok := s.snapshot.keys[asset]
	return key, ok
}

func (s *source) Asset(_ context.Context, key string) (common.Address, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	asset, ok := s.snapshot.assets[strings.ToUpper(key)]
	return asset, ok
}

func (s *source) Address(_ context.Context, name string) (common.Address, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	addr, ok := s.snapshot.addresses[strings.ToUpper(name)]
	return addr, ok
}

func (s *source) String(_ context.Context, name string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.snapshot.strings[strings.ToUpper(name)]
	return value, ok
}

func (s *source) reload(e fsnotify.Event) {
	snap, err := parse(s.vip)
	if err != nil {
		log.WithError(err).Warnf(
			"config source %s: failed to reload %s, keeping previous values",
			s.name, e.Name,
		)
		return
	}

	s.lock.Lock()
	s.snapshot = snap
	s.lock.Unlock()

	log.Infof("config source %s: reloaded %s", s.name, e.Name)
}

// parse reads the sections of the file. Viper lower-cases every key, therefore
// keys are upper-cased back.
func parse(vip *viper.Viper) (snapshot, error) {
	snap := snapshot{
		keys:      make(map[common.Address]string),
		assets:    make(map[string]common.Address),
		addresses: make(map[string]common.Address),
		strings:   make(map[string]string),
	}

	for key, value := range vip.GetStringMapString(assetsKey) {
		if !common.IsHexAddress(value) {
			return snapshot{}, fmt.Errorf("invalid address %s for asset %s", value, key)
		}
		key = strings.ToUpper(key)
		asset := common.HexToAddress(value)
		snap.assets[key] = asset
		snap.keys[asset] = key
	}

	for name, value := range vip.GetStringMapString(addressesKey) {
		if !common.IsHexAddress(value) {
			return snapshot{}, fmt.Errorf("invalid address %s for %s", value, name)
		}
		snap.addresses[strings.ToUpper(name)] = common.HexToAddress(value)
	}

	for name, value := range vip.GetStringMapString(stringsKey) {
		snap.strings[strings.ToUpper(name)] = value
	}

	return snap, nil
}
