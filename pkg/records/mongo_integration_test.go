//go:build integration

package records

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/query-cache/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMongo(t *testing.T) *MongoStore {
	t.Helper()
	ctx := context.Background()

	store, err := Connect(ctx,
		WithURI(testutil.StartMongo(t)),
		WithDatabase("query_cache_test"),
		WithQueryTimeout(5*time.Second),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestMongoStore_Integration_FindByID(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testutil.Widget()))

	found, err := store.FindByID(ctx, "123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, testutil.Widget(), *found)

	missing, err := store.FindByID(ctx, "999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMongoStore_Integration_FindByNameFragment(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testutil.NamedProducts("widg", 15)...))
	require.NoError(t, store.Insert(ctx, testutil.Widget()))

	got, err := store.FindByNameFragment(ctx, "WiDg", FragmentLimit)
	require.NoError(t, err)
	assert.Len(t, got, FragmentLimit)

	got, err = store.FindByNameFragment(ctx, "deluxe", 100)
	require.NoError(t, err)
	assert.Len(t, got, 7)

	got, err = store.FindByNameFragment(ctx, "widg.*", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMongoStore_Integration_UniqueProductID(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testutil.Widget()))
	assert.Error(t, store.Insert(ctx, testutil.Widget()))
}
