package httpinterface

import (
	"github.com/tdex-network/escrowd/internal/core/domain"
)

type depositRequest struct {
	Underlying string `json:"underlying"`
	Amount     string `json:"amount"`
	Recipient  string `json:"recipient"`
}

type idResponse struct {
	ID uint64 `json:"id"`
}

type depositInfo struct {
	ID                uint64 `json:"id"`
	Depositor         string `json:"depositor"`
	UnderlyingAsset   string `json:"underlying_asset"`
	Amount            string `json:"amount"`
	YieldAsset        string `json:"yield_asset"`
	YieldAmount       string `json:"yield_amount"`
	IntendedRecipient string `json:"intended_recipient"`
	CreatedAt         int64  `json:"created_at"`
	Used              bool   `json:"used"`
	Status            string `json:"status"`
	ResolvedAt        int64  `json:"resolved_at,omitempty"`
}

func newDepositInfo(d domain.Deposit) depositInfo {
	info := depositInfo{
		ID:                d.ID,
		Depositor:         d.Depositor.Hex(),
		UnderlyingAsset:   d.UnderlyingAsset.Hex(),
		Amount:            d.Amount.String(),
		YieldAsset:        d.YieldAsset.Hex(),
		YieldAmount:       d.YieldAmount.String(),
		IntendedRecipient: d.IntendedRecipient.Hex(),
		CreatedAt:         d.CreatedAt.Unix(),
		Used:              d.Used,
		Status:            d.Status.String(),
	}
	if !d.ResolvedAt.IsZero() {
		info.ResolvedAt = d.ResolvedAt.Unix()
	}
	return info
}

type estimateResponse struct {
	ID              uint64 `json:"id"`
	UnderlyingValue string `json:"underlying_value"`
}

type idsResponse struct {
	IDs   []uint64 `json:"ids"`
	Count int      `json:"count"`
}

type eventsResponse struct {
	Events []domain.Event `json:"events"`
}

type policyInfo struct {
	Version          uint64   `json:"version"`
	Owner            string   `json:"owner"`
	RecoveryDelay    int64    `json:"recovery_delay"`
	WhitelistEnabled bool     `json:"whitelist_enabled"`
	Whitelist        []string `json:"whitelist"`
	ConfigSource     string   `json:"config_source"`
	Delegate         string   `json:"delegate"`
	PoolKeyPrefix    string   `json:"pool_key_prefix"`
	Delegates        []string `json:"delegates"`
	ConfigSources    []string `json:"config_sources"`
}

type whitelistRequest struct {
	Principal string `json:"principal"`
	Allowed   bool   `json:"allowed"`
}

type whitelistStatusRequest struct {
	Enabled bool `json:"enabled"`
}

type recoveryDelayRequest struct {
	Seconds int64 `json:"seconds"`
}

type refRequest struct {
	Ref string `json:"ref"`
}

type ownerRequest struct {
	NewOwner string `json:"new_owner"`
}

type webhookRequest struct {
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret,omitempty"`
}

type webhookIDResponse struct {
	ID string `json:"id"`
}

type mintRequest struct {
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type approveRequest struct {
	Asset   string `json:"asset"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type balanceResponse struct {
	Asset   string `json:"asset"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}
