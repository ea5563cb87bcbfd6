package httpinterface

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/tdex-network/escrowd/internal/core/application/vault"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/pkg/stats"
)

type vaultHandler struct {
	vaultSvc *vault.Service
}

func newVaultHandler(vaultSvc *vault.Service) *vaultHandler {
	return &vaultHandler{vaultSvc}
}

func (h *vaultHandler) deposit(w http.ResponseWriter, r *http.Request) {
	id, err := h.doDeposit(r)
	stats.Observe(stats.OperationDeposit, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{id})
}

func (h *vaultHandler) doDeposit(r *http.Request) (uint64, error) {
	caller, err := parsePrincipal(r)
	if err != nil {
		return 0, err
	}
	var req depositRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, err
	}
	underlying, err := parseAddress("underlying", req.Underlying)
	if err != nil {
		return 0, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return 0, err
	}
	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		return 0, err
	}

	return h.vaultSvc.Deposit(r.Context(), caller, underlying, amount, recipient)
}

func (h *vaultHandler) claim(w http.ResponseWriter, r *http.Request) {
	id, err := h.transition(r, h.vaultSvc.Claim)
	stats.Observe(stats.OperationClaim, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{id})
}

func (h *vaultHandler) recover(w http.ResponseWriter, r *http.Request) {
	id, err := h.transition(r, h.vaultSvc.Recover)
	stats.Observe(stats.OperationRecover, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{id})
}

func (h *vaultHandler) transition(
	r *http.Request,
	transitionFn func(context.Context, common.Address, uint64) error,
) (uint64, error) {
	caller, err := parsePrincipal(r)
	if err != nil {
		return 0, err
	}
	id, err := parseIDParam(r)
	if err != nil {
		return 0, err
	}
	return id, transitionFn(r.Context(), caller, id)
}

func (h *vaultHandler) getDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	deposit, err := h.vaultSvc.GetDeposit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDepositInfo(*deposit))
}

func (h *vaultHandler) estimate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	value := h.vaultSvc.EstimateUnderlyingValue(r.Context(), id)
	stats.Observe(stats.OperationEstimate, nil)
	writeJSON(w, http.StatusOK, estimateResponse{id, value.String()})
}

func (h *vaultHandler) activeDeposits(w http.ResponseWriter, r *http.Request) {
	depositor, err := parseAddress("depositor", chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, err)
		return
	}
	ids, err := h.vaultSvc.GetActiveIDs(r.Context(), depositor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idsResponse{nonNil(ids), len(ids)})
}

func (h *vaultHandler) claimableDeposits(w http.ResponseWriter, r *http.Request) {
	recipient, err := parseAddress("recipient", chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, err)
		return
	}
	ids, err := h.vaultSvc.GetClaimableIDs(r.Context(), recipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idsResponse{nonNil(ids), len(ids)})
}

func (h *vaultHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	from, err := parseUintQuery(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	number, err := parseUintQuery(r, "page")
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := parseUintQuery(r, "size")
	if err != nil {
		writeError(w, err)
		return
	}

	page := domain.NewPage(int(number), int(size))
	events, err := h.vaultSvc.ListEvents(r.Context(), from, page)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{events})
}

func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}
