package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	storagetest.Run(t, store)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadline.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	store.Close()

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(ctx))
}
