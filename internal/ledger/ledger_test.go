package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

type memBalances map[int64]int64

func (m memBalances) AdjustBalance(_ context.Context, userID int64, delta int64) (int64, error) {
	m[userID] += delta
	return m[userID], nil
}

func TestCreditDebit(t *testing.T) {
	ctx := context.Background()
	b := memBalances{1: 500}

	got, err := Credit(ctx, b, 1, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got)

	got, err = Debit(ctx, b, 1, 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(-500), got, "debits are not reserved and may go negative")

	_, err = Credit(ctx, b, 1, 0)
	assert.Error(t, err)
	_, err = Debit(ctx, b, 1, -10)
	assert.Error(t, err)
	assert.Equal(t, int64(-500), b[1])
}

func TestRequireFunds(t *testing.T) {
	assert.NoError(t, RequireFunds(1000, 1000))
	assert.True(t, errors.Is(RequireFunds(500, 1000), models.ErrInsufficientFunds))
}

func TestLimitsCheck(t *testing.T) {
	l := Limits{Min: 100, Max: 10000}
	tests := []struct {
		amount int64
		ok     bool
	}{
		{99, false},
		{100, true},
		{5000, true},
		{10000, true},
		{10001, false},
	}
	for _, tt := range tests {
		err := l.Check("penalty", tt.amount)
		if tt.ok {
			assert.NoError(t, err, "amount %d", tt.amount)
			continue
		}
		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr, "amount %d", tt.amount)
		assert.Equal(t, "penalty", vErr.Field)
	}
}

func TestPlatformFee(t *testing.T) {
	assert.Equal(t, int64(100), PlatformFee(500, 20))
	assert.Equal(t, int64(20), PlatformFee(101, 20))
	assert.Equal(t, int64(0), PlatformFee(500, 0))
}

func TestExpected(t *testing.T) {
	payments := []models.Payment{
		{Type: models.PaymentDeposit, Status: models.PaymentCompleted, Amount: 2000},
		{Type: models.PaymentDeposit, Status: models.PaymentPending, Amount: 9999},
		{Type: models.PaymentPenalty, Status: models.PaymentCompleted, Amount: 500},
		{Type: models.PaymentWithdrawal, Status: models.PaymentCompleted, Amount: 300},
		{Type: models.PaymentWithdrawal, Status: models.PaymentFailed, Amount: 700},
	}
	assert.Equal(t, int64(1200), Expected(payments))
	assert.Equal(t, int64(0), Expected(nil))
}
