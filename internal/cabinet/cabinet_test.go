package cabinet

import (
	"context"
	"errors"
	"testing"

	"github.com/cuemby/cabinetd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTxn(t *testing.T, fn func(*testing.T, store.Txn)) {
	t.Helper()
	db := store.NewMemory()
	err := db.Update(context.Background(), func(tx store.Txn) error {
		fn(t, tx)
		return nil
	})
	require.NoError(t, err)
}

func TestGetOnEmptyCabinetReturnsNotFound(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		c := New(tx, "acme")
		v, ok, err := c.Get([]byte("k"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})
}

func TestPutThenGetRoundTrips(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		c := New(tx, "acme")
		require.NoError(t, c.Put([]byte("k"), []byte("v")))

		v, ok, err := c.Get([]byte("k"))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("v"), v)
	})
}

func TestPutUpdatesCounters(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		c := New(tx, "acme")
		require.NoError(t, c.Put([]byte("k"), []byte("value")))

		count, size, err := c.Stats()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Positive(t, size)
	})
}

func TestDeleteMissingKeyReturnsNotFound(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		c := New(tx, "acme")
		err := c.Delete([]byte("missing"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestDeletePresentKeyRemovesItAndUpdatesCounters(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		c := New(tx, "acme")
		require.NoError(t, c.Put([]byte("k"), []byte("v")))
		require.NoError(t, c.Delete([]byte("k")))

		_, ok, err := c.Get([]byte("k"))
		require.NoError(t, err)
		assert.False(t, ok)

		count, size, err := c.Stats()
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
		assert.Equal(t, int64(0), size)
	})
}

func TestClearRemovesAllItemsAndResetsCounters(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		c := New(tx, "acme")
		require.NoError(t, c.Put([]byte("a"), []byte("1")))
		require.NoError(t, c.Put([]byte("b"), []byte("2")))

		require.NoError(t, c.Clear())

		for _, k := range [][]byte{[]byte("a"), []byte("b")} {
			_, ok, err := c.Get(k)
			require.NoError(t, err)
			assert.False(t, ok)
		}

		count, size, err := c.Stats()
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
		assert.Equal(t, int64(0), size)
	})
}

func TestTenantsAreIsolated(t *testing.T) {
	withTxn(t, func(t *testing.T, tx store.Txn) {
		acme := New(tx, "acme")
		other := New(tx, "other")

		require.NoError(t, acme.Put([]byte("k"), []byte("acme-value")))

		_, ok, err := other.Get([]byte("k"))
		require.NoError(t, err)
		assert.False(t, ok, "tenants must not see each other's data")

		require.NoError(t, other.Clear())

		v, ok, err := acme.Get([]byte("k"))
		require.NoError(t, err)
		require.True(t, ok, "clearing one tenant must not affect another")
		assert.Equal(t, []byte("acme-value"), v)
	})
}
