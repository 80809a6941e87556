package dto

import (
	"time"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Penalty     int64     `json:"penalty"`
}

type SubmitProofRequest struct {
	ProofURL string `json:"proofUrl" validate:"required,url"`
}

type CompletionResponse struct {
	Task          models.Task `json:"task"`
	CurrentStreak int         `json:"currentStreak"`
	LongestStreak int         `json:"longestStreak"`
	Milestone     string      `json:"milestone,omitempty"`
}
