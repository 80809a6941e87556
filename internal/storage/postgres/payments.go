package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

const paymentColumns = `id, user_id, task_id, amount, type, status, external_id, created_at`

// ListPayments returns the user's payments, newest first.
func (s *Store) ListPayments(ctx context.Context, userID int64, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var p models.Payment
	var taskID, externalID *string
	var typ, status string
	if err := row.Scan(&p.ID, &p.UserID, &taskID, &p.Amount, &typ, &status, &externalID, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Payment{}, storage.ErrNotFound
		}
		return models.Payment{}, err
	}
	p.TaskID = deref(taskID)
	p.ExternalID = deref(externalID)
	p.Type = models.PaymentType(typ)
	p.Status = models.PaymentStatus(status)
	return p, nil
}
