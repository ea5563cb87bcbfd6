package httpinterface

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tdex-network/escrowd/internal/core/application/admin"
	"github.com/tdex-network/escrowd/pkg/stats"
)

type adminHandler struct {
	adminSvc *admin.Service
}

func newAdminHandler(adminSvc *admin.Service) *adminHandler {
	return &adminHandler{adminSvc}
}

func (h *adminHandler) getPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.adminSvc.GetPolicy(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	whitelist := make([]string, 0, len(policy.Whitelist))
	for _, addr := range policy.WhitelistedPrincipals() {
		whitelist = append(whitelist, addr.Hex())
	}
	writeJSON(w, http.StatusOK, policyInfo{
		Version:          policy.Version,
		Owner:            policy.Owner.Hex(),
		RecoveryDelay:    int64(policy.RecoveryDelay / time.Second),
		WhitelistEnabled: policy.WhitelistEnabled,
		Whitelist:        whitelist,
		ConfigSource:     policy.ConfigSourceRef,
		Delegate:         policy.DelegateRef,
		PoolKeyPrefix:    policy.PoolKeyPrefix,
		Delegates:        h.adminSvc.DelegateRefs(),
		ConfigSources:    h.adminSvc.ConfigSourceRefs(),
	})
}

func (h *adminHandler) setWhitelisted(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(caller common.Address) error {
		var req whitelistRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		principal, err := parseAddress("principal", req.Principal)
		if err != nil {
			return err
		}
		return h.adminSvc.SetWhitelisted(r.Context(), caller, principal, req.Allowed)
	})
}

func (h *adminHandler) setWhitelistEnabled(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(caller common.Address) error {
		var req whitelistStatusRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		return h.adminSvc.SetWhitelistEnabled(r.Context(), caller, req.Enabled)
	})
}

func (h *adminHandler) setRecoveryDelay(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(caller common.Address) error {
		var req recoveryDelayRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		delay := time.Duration(req.Seconds) * time.Second
		return h.adminSvc.SetRecoveryDelay(r.Context(), caller, delay)
	})
}

func (h *adminHandler) setDelegate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(caller common.Address) error {
		var req refRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		return h.adminSvc.SetDelegate(r.Context(), caller, req.Ref)
	})
}

func (h *adminHandler) setConfigSource(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(caller common.Address) error {
		var req refRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		return h.adminSvc.SetConfigSource(r.Context(), caller, req.Ref)
	})
}

func (h *adminHandler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(caller common.Address) error {
		var req ownerRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		newOwner, err := parseAddress("new owner", req.NewOwner)
		if err != nil {
			return err
		}
		return h.adminSvc.TransferOwnership(r.Context(), caller, newOwner)
	})
}

func (h *adminHandler) update(
	w http.ResponseWriter, r *http.Request,
	updateFn func(caller common.Address) error,
) {
	caller, err := parsePrincipal(r)
	if err == nil {
		err = updateFn(caller)
	}
	stats.Observe(stats.OperationAdmin, err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.getPolicy(w, r)
}
