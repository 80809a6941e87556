package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/deposits"
	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/models/dto"
)

// WalletHandler serves the balance view and deposit initiation.
type WalletHandler struct {
	svc *deposits.Service
	log *zap.Logger
}

func NewWalletHandler(svc *deposits.Service, log *zap.Logger) *WalletHandler {
	return &WalletHandler{svc: svc, log: log}
}

// Register attaches wallet routes. The router must already authenticate.
func (h *WalletHandler) Register(r chi.Router) {
	r.Get("/wallet", h.handleWallet)
	r.Post("/wallet/deposit", h.handleDeposit)
}

func (h *WalletHandler) handleWallet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	wallet, err := h.svc.Wallet(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.WalletResponse{Balance: wallet.Balance, Payments: wallet.Payments})
}

func (h *WalletHandler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.DepositRequest
	if !decode(w, r, &req) {
		return
	}
	url, err := h.svc.Initiate(r.Context(), uid, req.Amount)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "checkout ready", dto.DepositResponse{URL: url})
}
