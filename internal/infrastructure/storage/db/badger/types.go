package dbbadger

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

const (
	depositsCounterKey = "seq:deposits"
	eventsCounterKey   = "seq:events"
	policyKey          = "policy"
)

type counter struct {
	Value uint64
}

type deposit struct {
	ID                uint64
	Depositor         string `badgerhold:"index"`
	UnderlyingAsset   string
	Amount            string
	YieldAsset        string
	YieldAmount       string
	IntendedRecipient string `badgerhold:"index"`
	CreatedAt         int64
	Used              bool
	Status            int
	ResolvedAt        int64
}

func newDeposit(d domain.Deposit) deposit {
	var resolvedAt int64
	if !d.ResolvedAt.IsZero() {
		resolvedAt = d.ResolvedAt.UnixNano()
	}
	return deposit{
		ID:                d.ID,
		Depositor:         d.Depositor.Hex(),
		UnderlyingAsset:   d.UnderlyingAsset.Hex(),
		Amount:            d.Amount.String(),
		YieldAsset:        d.YieldAsset.Hex(),
		YieldAmount:       d.YieldAmount.String(),
		IntendedRecipient: d.IntendedRecipient.Hex(),
		CreatedAt:         d.CreatedAt.UnixNano(),
		Used:              d.Used,
		Status:            int(d.Status),
		ResolvedAt:        resolvedAt,
	}
}

func (d deposit) toDomain() *domain.Deposit {
	amount, _ := new(big.Int).SetString(d.Amount, 10)
	yieldAmount, _ := new(big.Int).SetString(d.YieldAmount, 10)
	var resolvedAt time.Time
	if d.ResolvedAt > 0 {
		resolvedAt = time.Unix(0, d.ResolvedAt)
	}
	return &domain.Deposit{
		ID:                d.ID,
		Depositor:         common.HexToAddress(d.Depositor),
		UnderlyingAsset:   common.HexToAddress(d.UnderlyingAsset),
		Amount:            amount,
		YieldAsset:        common.HexToAddress(d.YieldAsset),
		YieldAmount:       yieldAmount,
		IntendedRecipient: common.HexToAddress(d.IntendedRecipient),
		CreatedAt:         time.Unix(0, d.CreatedAt),
		Used:              d.Used,
		Status:            domain.DepositStatus(d.Status),
		ResolvedAt:        resolvedAt,
	}
}

type event struct {
	Sequence  uint64
	ChainID   uint64
	Origin    string
	SubIndex  uint32
	Type      string
	Timestamp int64
	Data      []byte
}

func newEvent(e domain.Event) event {
	return event{
		Sequence:  e.Sequence,
		ChainID:   e.ChainID,
		Origin:    e.Origin.Hex(),
		SubIndex:  e.SubIndex,
		Type:      string(e.Type),
		Timestamp: e.Timestamp.UnixNano(),
		Data:      e.Data,
	}
}

func (e event) toDomain() domain.Event {
	return domain.Event{
		Sequence:  e.Sequence,
		ChainID:   e.ChainID,
		Origin:    common.HexToAddress(e.Origin),
		SubIndex:  e.SubIndex,
		Type:      domain.EventType(e.Type),
		Timestamp: time.Unix(0, e.Timestamp),
		Data:      e.Data,
	}
}

type policy struct {
	Version          uint64
	Owner            string
	RecoveryDelay    int64
	WhitelistEnabled bool
	Whitelist        []string
	ConfigSourceRef  string
	DelegateRef      string
	PoolKeyPrefix    string
}

func newPolicy(p domain.Policy) policy {
	whitelist := make([]string, 0, len(p.Whitelist))
	for _, addr := range p.WhitelistedPrincipals() {
		whitelist = append(whitelist, addr.Hex())
	}
	return policy{
		Version:          p.Version,
		Owner:            p.Owner.Hex(),
		RecoveryDelay:    int64(p.RecoveryDelay),
		WhitelistEnabled: p.WhitelistEnabled,
		Whitelist:        whitelist,
		ConfigSourceRef:  p.ConfigSourceRef,
		DelegateRef:      p.DelegateRef,
		PoolKeyPrefix:    p.PoolKeyPrefix,
	}
}

func (p policy) toDomain() *domain.Policy {
	whitelist := make(map[common.Address]struct{}, len(p.Whitelist))
	for _, addr := range p.Whitelist {
		whitelist[common.HexToAddress(addr)] = struct{}{}
	}
	return &domain.Policy{
		Version:          p.Version,
		Owner:            common.HexToAddress(p.Owner),
		RecoveryDelay:    time.Duration(p.RecoveryDelay),
		WhitelistEnabled: p.WhitelistEnabled,
		Whitelist:        whitelist,
		ConfigSourceRef:  p.ConfigSourceRef,
		DelegateRef:      p.DelegateRef,
		PoolKeyPrefix:    p.PoolKeyPrefix,
	}
}
