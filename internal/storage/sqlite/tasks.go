package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

const taskColumns = `id, user_id, title, description, deadline, penalty, status, proof_url, completed_at, created_at`

// TaskByID fetches a task owned by userID.
func (s *Store) TaskByID(ctx context.Context, userID int64, id string) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`
	return scanTask(s.db.QueryRowContext(ctx, query, id, userID))
}

// ListTasks returns the user's tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, userID)
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
	WHERE status = 'PENDING' AND deadline < ? AND id > ?
	ORDER BY id
	LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, toMillis(now), afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var task models.Task
	var description, proofURL sql.NullString
	var completedAt sql.NullInt64
	var deadline, createdAt int64
	var status string
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &description, &deadline, &task.Penalty,
		&status, &proofURL, &completedAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}
		return models.Task{}, err
	}
	task.Description = description.String
	task.ProofURL = proofURL.String
	task.Status = models.TaskStatus(status)
	task.Deadline = fromMillis(deadline)
	task.CreatedAt = fromMillis(createdAt)
	if completedAt.Valid {
		at := fromMillis(completedAt.Int64)
		task.CompletedAt = &at
	}
	return task, nil
}
