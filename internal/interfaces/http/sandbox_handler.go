package httpinterface

import (
	"net/http"

	"github.com/tdex-network/escrowd/internal/core/ports"
)

// SandboxBook is the custody book of a sandbox daemon, where anyone can mint
// test tokens.
type SandboxBook interface {
	ports.Custody
	ports.Minter
}

type sandboxHandler struct {
	book SandboxBook
}

func newSandboxHandler(book SandboxBook) *sandboxHandler {
	return &sandboxHandler{book}
}

func (h *sandboxHandler) mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseAddress("recipient", req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.book.Mint(r.Context(), asset, to, amount); err != nil {
		writeError(w, badRequest("%s", err))
		return
	}
	h.writeBalance(w, r, req.Asset, req.To)
}

// approve grants the allowance from the calling principal to the spender.
func (h *sandboxHandler) approve(w http.ResponseWriter, r *http.Request) {
	owner, err := parsePrincipal(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req approveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		writeError(w, err)
		return
	}
	spender, err := parseAddress("spender", req.Spender)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.book.Approve(
		r.Context(), asset, owner, spender, amount,
	); err != nil {
		writeError(w, badRequest("%s", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sandboxHandler) balance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.writeBalance(w, r, query.Get("asset"), query.Get("holder"))
}

func (h *sandboxHandler) writeBalance(
	w http.ResponseWriter, r *http.Request, assetHex, holderHex string,
) {
	asset, err := parseAddress("asset", assetHex)
	if err != nil {
		writeError(w, err)
		return
	}
	holder, err := parseAddress("holder", holderHex)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.book.BalanceOf(r.Context(), asset, holder)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Asset:   asset.Hex(),
		Holder:  holder.Hex(),
		Balance: balance.String(),
	})
}
