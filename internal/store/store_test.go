package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// databases returns one of each Database implementation under test, so
// every case below exercises both the disk-backed and in-memory
// backends identically.
func databases(t *testing.T) map[string]Database {
	t.Helper()

	boltDB, err := OpenBolt(filepath.Join(t.TempDir(), "cabinet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = boltDB.Close() })

	return map[string]Database{
		"bolt":   boltDB,
		"memory": NewMemory(),
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			err := db.Update(context.Background(), func(tx Txn) error {
				tx.Set([]byte("k"), []byte("v"))
				return nil
			})
			require.NoError(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				v, ok, err := tx.Get([]byte("k"))
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, []byte("v"), v)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			err := db.Update(context.Background(), func(tx Txn) error {
				_, ok, err := tx.Get([]byte("missing"))
				require.NoError(t, err)
				assert.False(t, ok)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestFailedAttemptAppliesNoWrites(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			boom := assert.AnError
			err := db.Update(context.Background(), func(tx Txn) error {
				tx.Set([]byte("k"), []byte("v"))
				return boom
			})
			require.Error(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				_, ok, err := tx.Get([]byte("k"))
				require.NoError(t, err)
				assert.False(t, ok, "a failed attempt must not leave partial writes behind")
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestClearRemovesKey(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			err := db.Update(context.Background(), func(tx Txn) error {
				tx.Set([]byte("k"), []byte("v"))
				tx.Clear([]byte("k"))
				return nil
			})
			require.NoError(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				_, ok, err := tx.Get([]byte("k"))
				require.NoError(t, err)
				assert.False(t, ok)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestClearRangeIsHalfOpenAndBounded(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			err := db.Update(context.Background(), func(tx Txn) error {
				tx.Set([]byte("a"), []byte("1"))
				tx.Set([]byte("b"), []byte("2"))
				tx.Set([]byte("c"), []byte("3"))
				tx.Set([]byte("d"), []byte("4"))
				return nil
			})
			require.NoError(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				tx.ClearRange([]byte("b"), []byte("d"))
				return nil
			})
			require.NoError(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				for key, want := range map[string]bool{"a": true, "b": false, "c": false, "d": true} {
					_, ok, err := tx.Get([]byte(key))
					require.NoError(t, err)
					assert.Equal(t, want, ok, "key %q", key)
				}
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestAtomicAddAccumulatesAcrossAttempts(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("counter")

			for i := 0; i < 3; i++ {
				err := db.Update(context.Background(), func(tx Txn) error {
					return tx.AtomicAdd(key, 2)
				})
				require.NoError(t, err)
			}

			err := db.Update(context.Background(), func(tx Txn) error {
				return tx.AtomicAdd(key, -1)
			})
			require.NoError(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				v, ok, err := tx.Get(key)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Len(t, v, 8)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestAtomicAddRejectsMalformedCounter(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			err := db.Update(context.Background(), func(tx Txn) error {
				tx.Set([]byte("counter"), []byte("not-eight-bytes"))
				return nil
			})
			require.NoError(t, err)

			err = db.Update(context.Background(), func(tx Txn) error {
				return tx.AtomicAdd([]byte("counter"), 1)
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCounter)
			assert.False(t, IsRetryable(err))
		})
	}
}
