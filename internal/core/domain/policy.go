package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// DefaultRecoveryDelay is the time a depositor must wait before being
	// allowed to recover an unclaimed deposit.
	DefaultRecoveryDelay = 72 * time.Hour
	// DefaultPoolKeyPrefix is the prefix of the config keys used to resolve
	// the pool target of an asset.
	DefaultPoolKeyPrefix = "LENDING_POOL"
)

// Policy is the owner-mutable configuration of the vault. Every mutation bumps
// its version and returns the record of the change to be emitted.
type Policy struct {
	Version          uint64
	Owner            common.Address
	RecoveryDelay    time.Duration
	WhitelistEnabled bool
	Whitelist        map[common.Address]struct{}
	ConfigSourceRef  string
	DelegateRef      string
	PoolKeyPrefix    string
}

// NewPolicy returns the initial policy of a vault.
func NewPolicy(
	owner common.Address, recoveryDelay time.Duration,
	configSourceRef, delegateRef, poolKeyPrefix string,
) (*Policy, error) {
	if isNullAddress(owner) {
		return nil, fmt.Errorf("%w: missing owner", ErrInvalidPrincipal)
	}
	if recoveryDelay < 0 {
		return nil, ErrInvalidRecoveryDelay
	}
	if len(poolKeyPrefix) <= 0 {
		poolKeyPrefix = DefaultPoolKeyPrefix
	}
	return &Policy{
		Version:         1,
		Owner:           owner,
		RecoveryDelay:   recoveryDelay,
		Whitelist:       make(map[common.Address]struct{}),
		ConfigSourceRef: configSourceRef,
		DelegateRef:     delegateRef,
		PoolKeyPrefix:   poolKeyPrefix,
	}, nil
}

func (p Policy) IsOwner(addr common.Address) bool {
	return p.Owner == addr
}

func (p Policy) IsWhitelisted(addr common.Address) bool {
	_, ok := p.Whitelist[addr]
	return ok
}

// CanClaim returns whether the given principal passes the allow-list check.
func (p Policy) CanClaim(addr common.Address) bool {
	return !p.WhitelistEnabled || p.IsWhitelisted(addr)
}

// WhitelistedPrincipals returns the whitelist sorted by address.
func (p Policy) WhitelistedPrincipals() []common.Address {
	list := make([]common.Address, 0, len(p.Whitelist))
	for addr := range p.Whitelist {
		list = append(list, addr)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Hex() < list[j].Hex()
	})
	return list
}

func (p *Policy) SetWhitelisted(
	caller, principal common.Address, allowed bool,
) (*WhitelistUpdatedEvent, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}
	if isNullAddress(principal) {
		return nil, ErrInvalidPrincipal
	}

	if p.Whitelist == nil {
		p.Whitelist = make(map[common.Address]struct{})
	}
	if allowed {
		p.Whitelist[principal] = struct{}{}
	} else {
		delete(p.Whitelist, principal)
	}
	p.Version++

	return &WhitelistUpdatedEvent{principal.Hex(), allowed}, nil
}

func (p *Policy) SetWhitelistEnabled(
	caller common.Address, enabled bool,
) (*WhitelistStatusUpdatedEvent, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}

	old := p.WhitelistEnabled
	p.WhitelistEnabled = enabled
	p.Version++

	return &WhitelistStatusUpdatedEvent{old, enabled}, nil
}

func (p *Policy) SetRecoveryDelay(
	caller common.Address, delay time.Duration,
) (*RecoveryDelayUpdatedEvent, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, ErrInvalidRecoveryDelay
	}

	old := p.RecoveryDelay
	p.RecoveryDelay = delay
	p.Version++

	return &RecoveryDelayUpdatedEvent{
		OldDelay: int64(old / time.Second),
		NewDelay: int64(delay / time.Second),
	}, nil
}

// SetDelegateRef changes the default yield delegate. Checking that the
// reference is registered is up to the caller.
func (p *Policy) SetDelegateRef(
	caller common.Address, ref string,
) (*DelegateUpdatedEvent, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}
	if len(ref) <= 0 {
		return nil, ErrUnknownDelegate
	}

	old := p.DelegateRef
	p.DelegateRef = ref
	p.Version++

	return &DelegateUpdatedEvent{old, ref}, nil
}

// SetConfigSourceRef changes the config source used to resolve assets and
// bindings. Checking that the reference is registered is up to the caller.
func (p *Policy) SetConfigSourceRef(
	caller common.Address, ref string,
) (*ConfigSourceUpdatedEvent, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}
	if len(ref) <= 0 {
		return nil, ErrUnknownConfigSource
	}

	old := p.ConfigSourceRef
	p.ConfigSourceRef = ref
	p.Version++

	return &ConfigSourceUpdatedEvent{old, ref}, nil
}

func (p *Policy) TransferOwnership(
	caller, newOwner common.Address,
) (*OwnershipTransferredEvent, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}
	if isNullAddress(newOwner) {
		return nil, fmt.Errorf("%w: missing new owner", ErrInvalidPrincipal)
	}

	old := p.Owner
	p.Owner = newOwner
	p.Version++

	return &OwnershipTransferredEvent{old.Hex(), newOwner.Hex()}, nil
}

// Copy returns a deep copy of the policy.
func (p Policy) Copy() Policy {
	cp := p
	cp.Whitelist = make(map[common.Address]struct{}, len(p.Whitelist))
	for addr := range p.Whitelist {
		cp.Whitelist[addr] = struct{}{}
	}
	return cp
}

func (p Policy) onlyOwner(caller common.Address) error {
	if !p.IsOwner(caller) {
		return ErrNotOwner
	}
	return nil
}
