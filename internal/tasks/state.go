package tasks

import "github.com/yuirsilva/deadline-daddy/internal/models"

// transitions lists the allowed lifecycle moves. A task leaves PENDING exactly
// once and terminal states have no exits.
var transitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskPending: {models.TaskCompleted, models.TaskFailed},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to models.TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
