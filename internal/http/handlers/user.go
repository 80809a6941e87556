package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/models/dto"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

// UserHandler serves the dashboard stats, profile edits and push subscriptions.
type UserHandler struct {
	store storage.Store
	log   *zap.Logger
}

func NewUserHandler(store storage.Store, log *zap.Logger) *UserHandler {
	return &UserHandler{store: store, log: log}
}

// Register attaches user routes. The router must already authenticate.
func (h *UserHandler) Register(r chi.Router) {
	r.Get("/user", h.handleStats)
	r.Patch("/user", h.handleUpdateProfile)
	r.Post("/push/subscribe", h.handleSubscribe)
	r.Delete("/push/subscribe", h.handleUnsubscribe)
}

func (h *UserHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	stats, err := h.store.Stats(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", stats)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.UpdateProfile(r.Context(), uid, strings.TrimSpace(req.Cellphone), strings.TrimSpace(req.TaxID))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", user)
}

func (h *UserHandler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.PushSubscribeRequest
	if !decode(w, r, &req) {
		return
	}
	var sub webpush.Subscription
	if err := json.Unmarshal(req.Subscription, &sub); err != nil || sub.Endpoint == "" {
		respond.Fields(w, "invalid subscription", map[string]string{"subscription": "must be a push subscription with an endpoint"})
		return
	}
	if err := h.store.SetPushSubscription(r.Context(), uid, string(req.Subscription)); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "subscribed", nil)
}

func (h *UserHandler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.store.SetPushSubscription(r.Context(), uid, ""); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "unsubscribed", nil)
}
