// Package inmemory implements a ports.ConfigSource backed by static maps.
package inmemory

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

type source struct {
	name      string
	keys      map[common.Address]string
	assets    map[string]common.Address
	addresses map[string]common.Address
	strings   map[string]string

	lock *sync.RWMutex
}

// Source is a ports.ConfigSource whose entries can be changed at runtime.
type Source interface {
	ports.ConfigSource
	SetAsset(key string, asset common.Address)
	SetAddress(name string, addr common.Address)
	SetString(name, value string)
}

func NewSource(name string) Source {
	return &source{
		name:      name,
		keys:      make(map[common.Address]string),
		assets:    make(map[string]common.Address),
		addresses: make(map[string]common.Address),
		strings:   make(map[string]string),
		lock:      &sync.RWMutex{},
	}
}

func (s *source) Name() string {
	return s.name
}

func (s *source) AssetKey(_ context.Context, asset common.Address) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	key, ok := s.keys[asset]
	return key, ok
}

func (s *source) Asset(_ context.Context, key string) (common.Address, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	asset, ok := s.assets[strings.ToUpper(key)]
	return asset, ok
}

func (s *source) Address(_ context.Context, name string) (common.Address, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	addr, ok := s.addresses[strings.ToUpper(name)]
	return addr, ok
}

func (s *source) String(_ context.Context, name string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.strings[strings.ToUpper(name)]
	return value, ok
}

// SetAsset maps the given key to the given asset and viceversa. Keys are
// upper-cased.
func (s *source) SetAsset(key string, asset common.Address) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key = strings.ToUpper(key)
	if prev, ok := s.assets[key]; ok {
		delete(s.keys, prev)
	}
	s.assets[key] = asset
	s.keys[asset] = key
}

func (s *source) SetAddress(name string, addr common.Address) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.addresses[strings.ToUpper(name)] = addr
}

func (s *source) SetString(name, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.strings[strings.ToUpper(name)] = value
}
