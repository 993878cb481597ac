package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "pending.db"), "pending_views")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndBatch(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{CartID: "cart-1"}))
	require.NoError(t, store.Enqueue(Item{CartID: "cart-2"}))

	size, err := store.Size()
	require.NoError(t, err)
	require.Equal(t, 2, size)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.NotEmpty(t, item.ID)
		require.False(t, item.Timestamp.IsZero())
	}
}

func TestEnqueueDeduplicatesByCart(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{CartID: "cart-1"}))
	require.NoError(t, store.Enqueue(Item{CartID: "cart-1"}))

	size, err := store.Size()
	require.NoError(t, err)
	require.Equal(t, 1, size)
}

func TestPriorityOrdersBatch(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{CartID: "slow", Priority: 5}))
	require.NoError(t, store.Enqueue(Item{CartID: "fast", Priority: 1}))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "fast", items[0].CartID)
}

func TestRemoveAndRequeue(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{CartID: "cart-1"}))
	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, store.Remove(items[0]))
	size, err := store.Size()
	require.NoError(t, err)
	require.Equal(t, 0, size)

	item := items[0]
	item.Retries = 1
	require.NoError(t, store.Requeue(item))
	size, err = store.Size()
	require.NoError(t, err)
	require.Equal(t, 1, size)

	requeued, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Equal(t, 1, requeued[0].Retries)
}

func TestCleanupDropsStaleItems(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue(Item{CartID: "old", Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{CartID: "new"}))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "new", items[0].CartID)
}
