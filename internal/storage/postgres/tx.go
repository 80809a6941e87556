package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

var _ storage.Tx = (*txStore)(nil)

// txStore implements storage.Tx on top of a pgx transaction.
type txStore struct {
	q querier
}

func (t *txStore) UserForUpdate(ctx context.Context, id int64) (models.User, error) {
	return scanUser(t.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (t *txStore) TaskForUpdate(ctx context.Context, id string) (models.Task, error) {
	return scanTask(t.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
}

func (t *txStore) PaymentByExternalIDForUpdate(ctx context.Context, externalID string) (models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_id = $1 FOR UPDATE`
	return scanPayment(t.q.QueryRow(ctx, query, externalID))
}

func (t *txStore) InsertTask(ctx context.Context, task models.Task) error {
	const query = `
	INSERT INTO tasks (id, user_id, title, description, deadline, penalty, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := t.q.Exec(ctx, query, task.ID, task.UserID, task.Title, nullable(task.Description),
		task.Deadline, task.Penalty, string(task.Status), task.CreatedAt)
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

func (t *txStore) UpdateTask(ctx context.Context, task models.Task) error {
	const query = `UPDATE tasks SET status = $2, proof_url = $3, completed_at = $4 WHERE id = $1`
	tag, err := t.q.Exec(ctx, query, task.ID, string(task.Status), nullable(task.ProofURL), task.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *txStore) DeleteTask(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *txStore) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	var balance int64
	err := t.q.QueryRow(ctx, `UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance`, userID, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	return balance, err
}

func (t *txStore) UpdateStreaks(ctx context.Context, userID int64, current, longest int) error {
	tag, err := t.q.Exec(ctx, `UPDATE users SET current_streak = $2, longest_streak = $3 WHERE id = $1`, userID, current, longest)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *txStore) InsertPayment(ctx context.Context, p models.Payment) error {
	const query = `
	INSERT INTO payments (id, user_id, task_id, amount, type, status, external_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := t.q.Exec(ctx, query, p.ID, p.UserID, nullable(p.TaskID), p.Amount, string(p.Type),
		string(p.Status), nullable(p.ExternalID), p.CreatedAt)
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

func (t *txStore) CompletePayment(ctx context.Context, id string, amount int64) error {
	tag, err := t.q.Exec(ctx, `UPDATE payments SET status = $2, amount = $3 WHERE id = $1`,
		id, string(models.PaymentCompleted), amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
