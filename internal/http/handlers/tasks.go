package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/models/dto"
	"github.com/yuirsilva/deadline-daddy/internal/tasks"
)

// TasksHandler serves the authenticated task endpoints.
type TasksHandler struct {
	svc *tasks.Service
	log *zap.Logger
}

func NewTasksHandler(svc *tasks.Service, log *zap.Logger) *TasksHandler {
	return &TasksHandler{svc: svc, log: log}
}

// Register attaches task routes. The router must already authenticate.
func (h *TasksHandler) Register(r chi.Router) {
	r.Get("/tasks", h.handleList)
	r.Post("/tasks", h.handleCreate)
	r.Get("/tasks/{id}", h.handleGet)
	r.Patch("/tasks/{id}", h.handleSubmitProof)
	r.Delete("/tasks/{id}", h.handleDelete)
}

func (h *TasksHandler) handleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.List(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if list == nil {
		list = []models.Task{}
	}
	respond.JSON(w, http.StatusOK, "ok", list)
}

func (h *TasksHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := h.svc.Create(r.Context(), uid, tasks.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Penalty:     req.Penalty,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "task created", task)
}

func (h *TasksHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	task, err := h.svc.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", task)
}

func (h *TasksHandler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.SubmitProofRequest
	if !decode(w, r, &req) {
		return
	}
	done, err := h.svc.SubmitProof(r.Context(), uid, chi.URLParam(r, "id"), req.ProofURL)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, done.Message, dto.CompletionResponse{
		Task:          done.Task,
		CurrentStreak: done.CurrentStreak,
		LongestStreak: done.LongestStreak,
		Milestone:     done.Milestone,
	})
}

func (h *TasksHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "task deleted", nil)
}
