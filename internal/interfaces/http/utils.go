package httpinterface

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

// PrincipalHeader carries the address of the caller. Authenticating it is up
// to the gateway in front of the daemon.
const PrincipalHeader = "X-Escrow-Principal"

const kindBadRequest = "BAD_REQUEST"

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

var statusByKind = map[string]int{
	domain.KindInvalidAsset:         http.StatusBadRequest,
	domain.KindInvalidAmount:        http.StatusBadRequest,
	domain.KindInvalidPrincipal:     http.StatusBadRequest,
	domain.KindInvalidRecoveryDelay: http.StatusBadRequest,
	domain.KindUnknownDelegate:      http.StatusBadRequest,
	domain.KindUnknownConfigSource:  http.StatusBadRequest,
	domain.KindNotFound:             http.StatusNotFound,
	domain.KindNotOwner:             http.StatusForbidden,
	domain.KindNotWhitelisted:       http.StatusForbidden,
	domain.KindNotIntendedRecipient: http.StatusForbidden,
	domain.KindNotDepositor:         http.StatusForbidden,
	domain.KindAlreadyUsed:          http.StatusConflict,
	domain.KindRecoveryNotAvailable: http.StatusConflict,
	domain.KindReentrantCall:        http.StatusConflict,
	domain.KindYieldAssetNotFound:   http.StatusUnprocessableEntity,
	domain.KindNoYieldReceived:      http.StatusBadGateway,
	domain.KindSupplyFailed:         http.StatusBadGateway,
	domain.KindPolicyNotInitialized: http.StatusServiceUnavailable,
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequest) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:  kindBadRequest,
			Error: err.Error(),
		})
		return
	}

	kind := domain.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
		log.WithError(err).Warn("request failed with internal error")
	}
	writeJSON(w, status, errorResponse{
		Code:      kind,
		Error:     err.Error(),
		Retryable: domain.IsRetryable(err),
	})
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid body: %s", err)
	}
	return nil
}

// parseAddress accepts only 0x-prefixed hex addresses. The zero address is a
// valid input and is rejected by the services where not allowed.
func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, badRequest("invalid %s address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(name, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, badRequest("invalid %s %q", name, value)
	}
	return amount, nil
}

func parsePrincipal(r *http.Request) (common.Address, error) {
	value := r.Header.Get(PrincipalHeader)
	if len(value) <= 0 {
		return common.Address{}, badRequest("missing %s header", PrincipalHeader)
	}
	return parseAddress("principal", value)
}

func parseIDParam(r *http.Request) (uint64, error) {
	value := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, badRequest("invalid deposit id %q", value)
	}
	return id, nil
}

func parseUintQuery(r *http.Request, name string) (uint64, error) {
	value := r.URL.Query().Get(name)
	if len(value) <= 0 {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, value)
	}
	return n, nil
}
