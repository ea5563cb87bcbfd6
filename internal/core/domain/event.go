package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies the kind of record emitted by the vault.
type EventType string

const (
	EventDeposited              EventType = "DEPOSITED"
	EventClaimed                EventType = "CLAIMED"
	EventRecovered              EventType = "RECOVERED"
	EventWhitelistUpdated       EventType = "WHITELIST_UPDATED"
	EventWhitelistStatusUpdated EventType = "WHITELIST_STATUS_UPDATED"
	EventRecoveryDelayUpdated   EventType = "RECOVERY_DELAY_UPDATED"
	EventDelegateUpdated        EventType = "DELEGATE_UPDATED"
	EventConfigSourceUpdated    EventType = "CONFIG_SOURCE_UPDATED"
	EventOwnershipTransferred   EventType = "OWNERSHIP_TRANSFERRED"
)

// EventTypes lists all the known event types.
var EventTypes = []EventType{
	EventDeposited, EventClaimed, EventRecovered,
	EventWhitelistUpdated, EventWhitelistStatusUpdated,
	EventRecoveryDelayUpdated, EventDelegateUpdated, EventConfigSourceUpdated,
	EventOwnershipTransferred,
}

func (t EventType) IsValid() bool {
	for _, tt := range EventTypes {
		if t == tt {
			return true
		}
	}
	return false
}

// EventOrigin identifies the vault instance that emits the events.
type EventOrigin struct {
	ChainID uint64
	Vault   common.Address
}

// Event is an append-only record emitted for every state change. The tuple
// (ChainID, Origin, Sequence, SubIndex) uniquely identifies an event so that
// consumers can upsert them idempotently.
type Event struct {
	Sequence  uint64          `json:"sequence"`
	ChainID   uint64          `json:"chain_id"`
	Origin    common.Address  `json:"origin"`
	SubIndex  uint32          `json:"sub_index"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventKey is the unique identifier of an event.
type EventKey struct {
	ChainID  uint64
	Origin   common.Address
	Sequence uint64
	SubIndex uint32
}

func (k EventKey) String() string {
	return fmt.Sprintf("%d:%s:%d:%d", k.ChainID, k.Origin.Hex(), k.Sequence, k.SubIndex)
}

// NewEvent returns a new event of the given type for the given origin. The
// sequence number is assigned by the EventRepository.
func NewEvent(
	origin EventOrigin, eventType EventType, payload interface{},
	timestamp time.Time,
) (*Event, error) {
	if !eventType.IsValid() {
		return nil, fmt.Errorf("unknown event type %s", eventType)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s event: %w", eventType, err)
	}
	return &Event{
		ChainID:   origin.ChainID,
		Origin:    origin.Vault,
		Type:      eventType,
		Timestamp: timestamp,
		Data:      data,
	}, nil
}

func (e Event) Key() EventKey {
	return EventKey{e.ChainID, e.Origin, e.Sequence, e.SubIndex}
}

// Decode deserializes the event payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Serialize returns the JSON representation of the event, as delivered to
// subscribers.
func (e Event) Serialize() []byte {
	b, _ := json.Marshal(e)
	return b
}

// DepositedEvent is emitted when a new deposit is created.
type DepositedEvent struct {
	Depositor         string `json:"depositor"`
	ID                uint64 `json:"id"`
	UnderlyingAsset   string `json:"underlying_asset"`
	Amount            string `json:"amount"`
	YieldAsset        string `json:"yield_asset"`
	YieldAmount       string `json:"yield_amount"`
	IntendedRecipient string `json:"intended_recipient"`
	CreatedAt         int64  `json:"created_at"`
}

func NewDepositedEvent(d Deposit) DepositedEvent {
	return DepositedEvent{
		Depositor:         d.Depositor.Hex(),
		ID:                d.ID,
		UnderlyingAsset:   d.UnderlyingAsset.Hex(),
		Amount:            d.Amount.String(),
		YieldAsset:        d.YieldAsset.Hex(),
		YieldAmount:       d.YieldAmount.String(),
		IntendedRecipient: d.IntendedRecipient.Hex(),
		CreatedAt:         d.CreatedAt.Unix(),
	}
}

// ClaimedEvent is emitted when the intended recipient claims a deposit.
type ClaimedEvent struct {
	Depositor   string `json:"depositor"`
	ID          uint64 `json:"id"`
	Claimant    string `json:"claimant"`
	YieldAsset  string `json:"yield_asset"`
	YieldAmount string `json:"yield_amount"`
}

func NewClaimedEvent(d Deposit, claimant common.Address) ClaimedEvent {
	return ClaimedEvent{
		Depositor:   d.Depositor.Hex(),
		ID:          d.ID,
		Claimant:    claimant.Hex(),
		YieldAsset:  d.YieldAsset.Hex(),
		YieldAmount: d.YieldAmount.String(),
	}
}

// RecoveredEvent is emitted when the depositor recovers a deposit.
type RecoveredEvent struct {
	Depositor   string `json:"depositor"`
	ID          uint64 `json:"id"`
	YieldAsset  string `json:"yield_asset"`
	YieldAmount string `json:"yield_amount"`
}

func NewRecoveredEvent(d Deposit) RecoveredEvent {
	return RecoveredEvent{
		Depositor:   d.Depositor.Hex(),
		ID:          d.ID,
		YieldAsset:  d.YieldAsset.Hex(),
		YieldAmount: d.YieldAmount.String(),
	}
}

type WhitelistUpdatedEvent struct {
	Principal string `json:"principal"`
	Allowed   bool   `json:"allowed"`
}

type WhitelistStatusUpdatedEvent struct {
	OldEnabled bool `json:"old_enabled"`
	NewEnabled bool `json:"new_enabled"`
}

// RecoveryDelayUpdatedEvent carries delays expressed in seconds.
type RecoveryDelayUpdatedEvent struct {
	OldDelay int64 `json:"old_delay"`
	NewDelay int64 `json:"new_delay"`
}

type DelegateUpdatedEvent struct {
	OldDelegateRef string `json:"old_delegate_ref"`
	NewDelegateRef string `json:"new_delegate_ref"`
}

type ConfigSourceUpdatedEvent struct {
	OldConfigRef string `json:"old_config_ref"`
	NewConfigRef string `json:"new_config_ref"`
}

type OwnershipTransferredEvent struct {
	PreviousOwner string `json:"previous_owner"`
	NewOwner      string `json:"new_owner"`
}
