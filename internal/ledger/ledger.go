// Package ledger holds the balance primitives shared by task creation, the
// deadline sweep and deposit settlement. Amounts are integer minor units.
package ledger

import (
	"context"
	"fmt"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

// Balances is the atomic read-modify-write a transaction exposes on a user's balance.
type Balances interface {
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)
}

// Limits bounds an amount, inclusive on both ends.
type Limits struct {
	Min int64
	Max int64
}

// Check validates amount against the limits and names field in the error.
func (l Limits) Check(field string, amount int64) error {
	if amount < l.Min || amount > l.Max {
		return models.Invalid(field, "must be between %d and %d", l.Min, l.Max)
	}
	return nil
}

// Credit adds amount to the user's balance and returns the new balance.
func Credit(ctx context.Context, b Balances, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit %d: amount must be positive", amount)
	}
	return b.AdjustBalance(ctx, userID, amount)
}

// Debit subtracts amount from the user's balance and returns the new balance.
// The result may be negative: penalties are charged without a reservation.
func Debit(ctx context.Context, b Balances, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit %d: amount must be positive", amount)
	}
	return b.AdjustBalance(ctx, userID, -amount)
}

// RequireFunds is the non-negative enforcement point: it fails unless balance covers amount.
func RequireFunds(balance, amount int64) error {
	if balance < amount {
		return models.ErrInsufficientFunds
	}
	return nil
}

// PlatformFee returns percent of penalty, rounded down.
func PlatformFee(penalty int64, percent int) int64 {
	return penalty * int64(percent) / 100
}

// Expected computes the balance implied by completed payments:
// deposits minus penalties minus withdrawals.
func Expected(payments []models.Payment) int64 {
	var total int64
	for _, p := range payments {
		if p.Status != models.PaymentCompleted {
			continue
		}
		switch p.Type {
		case models.PaymentDeposit:
			total += p.Amount
		case models.PaymentPenalty, models.PaymentWithdrawal:
			total -= p.Amount
		}
	}
	return total
}
