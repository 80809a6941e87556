package handlers

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/deposits"
	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/metrics"
	"github.com/yuirsilva/deadline-daddy/internal/models/dto"
	"github.com/yuirsilva/deadline-daddy/internal/payment"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

// EventParser turns a provider webhook body into an event.
type EventParser func(body []byte) (payment.Event, error)

// WebhookHandler receives payment provider callbacks.
type WebhookHandler struct {
	svc    *deposits.Service
	parse  EventParser
	secret string
	log    *zap.Logger
}

// NewWebhookHandler builds the handler. A non-empty secret must be echoed by
// the provider in the webhookSecret query parameter.
func NewWebhookHandler(svc *deposits.Service, parse EventParser, secret string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, parse: parse, secret: secret, log: log}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/abacatepay", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.URL.Query().Get("webhookSecret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			respond.Error(w, http.StatusUnauthorized, "invalid webhook secret")
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "unreadable body")
		return
	}
	ev, err := h.parse(body)
	if err != nil {
		metrics.DepositWebhooks.WithLabelValues("invalid").Inc()
		h.log.Warn("rejecting webhook", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	outcome, err := h.svc.Reconcile(r.Context(), ev)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, string(outcome), dto.WebhookResponse{Received: true})
}
