package models

import "time"

type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
)

// Final reports whether the status is terminal.
func (s TaskStatus) Final() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task is a self-imposed commitment: finish before Deadline or pay Penalty.
type Task struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    time.Time  `json:"deadline"`
	Penalty     int64      `json:"penalty"`
	Status      TaskStatus `json:"status"`
	ProofURL    string     `json:"proofUrl,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Expired reports whether the task is still pending past its deadline.
func (t Task) Expired(now time.Time) bool {
	return t.Status == TaskPending && t.Deadline.Before(now)
}
