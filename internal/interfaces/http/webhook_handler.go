package httpinterface

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tdex-network/escrowd/internal/core/application/pubsub"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
)

type webhookHandler struct {
	pubsubSvc *pubsub.Service
}

func newWebhookHandler(pubsubSvc *pubsub.Service) *webhookHandler {
	return &webhookHandler{pubsubSvc}
}

func (h *webhookHandler) addWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.pubsubSvc.AddWebhook(
		r.Context(), req.Event, req.Endpoint, req.Secret,
	)
	if err != nil {
		writeError(w, badRequest("%s", err))
		return
	}
	writeJSON(w, http.StatusCreated, webhookIDResponse{id})
}

func (h *webhookHandler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	event := r.URL.Query().Get("event")
	if len(event) <= 0 {
		event = ports.UnspecifiedTopic
	}

	hooks, err := h.pubsubSvc.ListWebhooks(r.Context(), event)
	if err != nil {
		writeError(w, badRequest("%s", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string][]pubsub.WebhookInfo{
		"webhooks": hooks,
	})
}

func (h *webhookHandler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pubsubSvc.RemoveWebhook(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrSubscriptionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Code:  domain.KindNotFound,
				Error: err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
