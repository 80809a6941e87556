package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

var _ storage.Tx = (*txStore)(nil)

// txStore implements storage.Tx. SQLite has no row locks; the *ForUpdate reads
// are plain selects made safe by the single-connection pool.
type txStore struct {
	q querier
}

func (t *txStore) UserForUpdate(ctx context.Context, id int64) (models.User, error) {
	return scanUser(t.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (t *txStore) TaskForUpdate(ctx context.Context, id string) (models.Task, error) {
	return scanTask(t.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
}

func (t *txStore) PaymentByExternalIDForUpdate(ctx context.Context, externalID string) (models.Payment, error) {
	return scanPayment(t.q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_id = ?`, externalID))
}

func (t *txStore) InsertTask(ctx context.Context, task models.Task) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, deadline, penalty, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Title, nullable(task.Description), toMillis(task.Deadline), task.Penalty,
		string(task.Status), toMillis(task.CreatedAt))
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

func (t *txStore) UpdateTask(ctx context.Context, task models.Task) error {
	var completedAt any
	if task.CompletedAt != nil {
		completedAt = toMillis(*task.CompletedAt)
	}
	res, err := t.q.ExecContext(ctx, `UPDATE tasks SET status = ?, proof_url = ?, completed_at = ? WHERE id = ?`,
		string(task.Status), nullable(task.ProofURL), completedAt, task.ID)
	return affected(res, err)
}

func (t *txStore) DeleteTask(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return affected(res, err)
}

func (t *txStore) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	var balance int64
	err := t.q.QueryRowContext(ctx, `UPDATE users SET balance = balance + ? WHERE id = ? RETURNING balance`, delta, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	return balance, err
}

func (t *txStore) UpdateStreaks(ctx context.Context, userID int64, current, longest int) error {
	res, err := t.q.ExecContext(ctx, `UPDATE users SET current_streak = ?, longest_streak = ? WHERE id = ?`, current, longest, userID)
	return affected(res, err)
}

func (t *txStore) InsertPayment(ctx context.Context, p models.Payment) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO payments (id, user_id, task_id, amount, type, status, external_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, nullable(p.TaskID), p.Amount, string(p.Type), string(p.Status), nullable(p.ExternalID), toMillis(p.CreatedAt))
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

func (t *txStore) CompletePayment(ctx context.Context, id string, amount int64) error {
	res, err := t.q.ExecContext(ctx, `UPDATE payments SET status = ?, amount = ? WHERE id = ?`,
		string(models.PaymentCompleted), amount, id)
	return affected(res, err)
}
