package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/sweep"
)

// CronHandler exposes the deadline sweep to an external scheduler.
type CronHandler struct {
	sweeper *sweep.Sweeper
	log     *zap.Logger
}

func NewCronHandler(sweeper *sweep.Sweeper, log *zap.Logger) *CronHandler {
	return &CronHandler{sweeper: sweeper, log: log}
}

// Register attaches the sweep trigger. The router must already check the cron secret.
func (h *CronHandler) Register(r chi.Router) {
	r.Get("/cron/deadline-check", h.handle)
	r.Post("/cron/deadline-check", h.handle)
}

func (h *CronHandler) handle(w http.ResponseWriter, r *http.Request) {
	// A scheduler that hangs up must not abort the batch halfway.
	summary, err := h.sweeper.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, sweep.ErrAlreadyRunning) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, h.log, err)
		return
	}
	if summary.Results == nil {
		summary.Results = []sweep.Result{}
	}
	respond.JSON(w, http.StatusOK, "deadline check complete", summary)
}
