package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

const paymentColumns = `id, user_id, task_id, amount, type, status, external_id, created_at`

// ListPayments returns the user's payments, newest first.
func (s *Store) ListPayments(ctx context.Context, userID int64, limit int) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY created_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func scanPayment(row interface{ Scan(...any) error }) (models.Payment, error) {
	var p models.Payment
	var taskID, externalID sql.NullString
	var typ, status string
	var createdAt int64
	if err := row.Scan(&p.ID, &p.UserID, &taskID, &p.Amount, &typ, &status, &externalID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, storage.ErrNotFound
		}
		return models.Payment{}, err
	}
	p.TaskID = taskID.String
	p.ExternalID = externalID.String
	p.Type = models.PaymentType(typ)
	p.Status = models.PaymentStatus(status)
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}
