package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

const taskColumns = `id, user_id, title, description, deadline, penalty, status, proof_url, completed_at, created_at`

// TaskByID fetches a task owned by userID.
func (s *Store) TaskByID(ctx context.Context, userID int64, id string) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return scanTask(s.pool.QueryRow(ctx, query, id, userID))
}

// ListTasks returns the user's tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ExpiredTaskIDs pages through pending tasks past their deadline.
func (s *Store) ExpiredTaskIDs(ctx context.Context, now time.Time, afterID string, limit int) ([]string, error) {
	const query = `
	SELECT id FROM tasks
	WHERE status = 'PENDING' AND deadline < $1 AND id > $2
	ORDER BY id
	LIMIT $3;
	`
	rows, err := s.pool.Query(ctx, query, now, afterID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	var description, proofURL *string
	var status string
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &description, &task.Deadline, &task.Penalty,
		&status, &proofURL, &task.CompletedAt, &task.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, err
	}
	task.Description = deref(description)
	task.ProofURL = deref(proofURL)
	task.Status = models.TaskStatus(status)
	return task, nil
}
