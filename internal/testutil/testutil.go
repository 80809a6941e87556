// Package testutil builds throwaway stores for service tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
	"github.com/yuirsilva/deadline-daddy/internal/storage/sqlite"
)

var userSeq atomic.Int64

// NewStore opens an in-memory SQLite store closed at test cleanup.
func NewStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

// SeedUser creates a user holding balance minor units. The balance is set
// directly, without a matching deposit payment.
func SeedUser(t *testing.T, store storage.Store, balance int64) models.User {
	t.Helper()
	ctx := context.Background()
	n := userSeq.Add(1)
	user, err := store.CreateUser(ctx, models.User{
		Name:         fmt.Sprintf("user %d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		Cellphone:    "+5511999990000",
		TaxID:        "12345678909",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	if balance != 0 {
		err = store.InTx(ctx, func(tx storage.Tx) error {
			_, err := tx.AdjustBalance(ctx, user.ID, balance)
			return err
		})
		require.NoError(t, err)
	}
	user, err = store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	return user
}

// SetStreaks overwrites a user's streak counters.
func SetStreaks(t *testing.T, store storage.Store, userID int64, current, longest int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateStreaks(ctx, userID, current, longest)
	}))
}

// InsertTask stores task as-is, bypassing creation rules (e.g. past deadlines).
func InsertTask(t *testing.T, store storage.Store, task models.Task) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertTask(ctx, task)
	}))
}
