// Package storagetest is a behavioural suite every storage.Store backend must pass.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

// Run exercises store. Email addresses are randomised so the suite can run
// against a shared database.
func Run(t *testing.T, store storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, store) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, store) })
	t.Run("payments", func(t *testing.T) { testPayments(t, store) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, store) })
}

func newUser(t *testing.T, store storage.Store) models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), models.User{
		Name:         "Ana",
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func testUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	user := newUser(t, store)
	assert.NotZero(t, user.ID)
	assert.Zero(t, user.Balance)
	assert.Empty(t, user.Cellphone)
	assert.False(t, user.CanDeposit())

	_, err := store.CreateUser(ctx, models.User{Name: "Dup", Email: user.Email, PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	found, err := store.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	_, err = store.FindByEmail(ctx, "nobody-"+uuid.NewString()+"@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	updated, err := store.UpdateProfile(ctx, user.ID, "+5511999990000", "12345678909")
	require.NoError(t, err)
	assert.True(t, updated.CanDeposit())

	require.NoError(t, store.SetPushSubscription(ctx, user.ID, `{"endpoint":"https://push.example"}`))
	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"endpoint":"https://push.example"}`, got.PushSubscription)
	require.NoError(t, store.SetPushSubscription(ctx, user.ID, ""))
	got, err = store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PushSubscription)

	assert.ErrorIs(t, store.SetPushSubscription(ctx, -1, "x"), storage.ErrNotFound)

	ids, err := store.UserIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, user.ID)
}

func testTasks(t *testing.T, store storage.Store) {
	ctx := context.Background()
	user := newUser(t, store)
	other := newUser(t, store)
	now := time.Now().UTC().Truncate(time.Millisecond)

	expired := models.Task{
		ID: uuid.NewString(), UserID: user.ID, Title: "expired", Description: "late",
		Deadline: now.Add(-time.Minute), Penalty: 500, Status: models.TaskPending, CreatedAt: now.Add(-time.Hour),
	}
	future := models.Task{
		ID: uuid.NewString(), UserID: user.ID, Title: "future",
		Deadline: now.Add(time.Hour), Penalty: 100, Status: models.TaskPending, CreatedAt: now,
	}
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.InsertTask(ctx, expired); err != nil {
			return err
		}
		return tx.InsertTask(ctx, future)
	}))

	got, err := store.TaskByID(ctx, user.ID, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, "late", got.Description)
	assert.True(t, got.Deadline.Equal(expired.Deadline))
	assert.Nil(t, got.CompletedAt)

	_, err = store.TaskByID(ctx, other.ID, expired.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "tasks are scoped to their owner")

	list, err := store.ListTasks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, future.ID, list[0].ID, "newest first")

	ids, err := store.ExpiredTaskIDs(ctx, now, "", 100)
	require.NoError(t, err)
	assert.Contains(t, ids, expired.ID)
	assert.NotContains(t, ids, future.ID)

	ids, err = store.ExpiredTaskIDs(ctx, now, expired.ID, 100)
	require.NoError(t, err)
	assert.NotContains(t, ids, expired.ID)

	completedAt := now
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		task, err := tx.TaskForUpdate(ctx, expired.ID)
		if err != nil {
			return err
		}
		task.Status = models.TaskCompleted
		task.ProofURL = "https://example.com/p.png"
		task.CompletedAt = &completedAt
		return tx.UpdateTask(ctx, task)
	}))
	got, err = store.TaskByID(ctx, user.ID, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, got.Status)
	assert.Equal(t, "https://example.com/p.png", got.ProofURL)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completedAt))

	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteTask(ctx, future.ID)
	}))
	err = store.InTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteTask(ctx, future.ID)
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateStreaks(ctx, user.ID, 3, 5)
	}))
	stats, err := store.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{CurrentStreak: 3, LongestStreak: 5, Completed: 1}, stats)

	_, err = store.Stats(ctx, -1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testPayments(t *testing.T, store storage.Store) {
	ctx := context.Background()
	user := newUser(t, store)
	now := time.Now().UTC().Truncate(time.Millisecond)
	externalID := "bill_" + uuid.NewString()

	deposit := models.Payment{
		ID: uuid.NewString(), UserID: user.ID, Amount: 2000, Type: models.PaymentDeposit,
		Status: models.PaymentPending, ExternalID: externalID, CreatedAt: now.Add(-time.Minute),
	}
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertPayment(ctx, deposit)
	}))

	dup := deposit
	dup.ID = uuid.NewString()
	err := store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertPayment(ctx, dup)
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists, "external ids are unique")

	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		p, err := tx.PaymentByExternalIDForUpdate(ctx, externalID)
		if err != nil {
			return err
		}
		if err := tx.CompletePayment(ctx, p.ID, 1900); err != nil {
			return err
		}
		balance, err := tx.AdjustBalance(ctx, user.ID, 1900)
		assert.Equal(t, int64(1900), balance)
		return err
	}))

	err = store.InTx(ctx, func(tx storage.Tx) error {
		return tx.CompletePayment(ctx, uuid.NewString(), 100)
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	penalty := models.Payment{
		ID: uuid.NewString(), UserID: user.ID, Amount: 500, Type: models.PaymentPenalty,
		Status: models.PaymentCompleted, CreatedAt: now,
	}
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.AdjustBalance(ctx, user.ID, -penalty.Amount); err != nil {
			return err
		}
		return tx.InsertPayment(ctx, penalty)
	}))

	payments, err := store.ListPayments(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, penalty.ID, payments[0].ID, "newest first")
	assert.Equal(t, models.PaymentCompleted, payments[1].Status)
	assert.Equal(t, externalID, payments[1].ExternalID)
	assert.Equal(t, int64(1900), payments[1].Amount, "settled amount replaces the requested one")
	assert.Empty(t, payments[0].ExternalID)

	limited, err := store.ListPayments(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stats, err := store.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), stats.Balance)
	assert.Equal(t, int64(500), stats.TotalLost)

	err = store.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.PaymentByExternalIDForUpdate(ctx, "bill_missing_"+uuid.NewString())
		return err
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testRollback(t *testing.T, store storage.Store) {
	ctx := context.Background()
	user := newUser(t, store)
	boom := fmt.Errorf("boom")

	err := store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.AdjustBalance(ctx, user.ID, 999); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Balance, "failed transactions leave no trace")
}
