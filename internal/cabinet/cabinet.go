// Package cabinet implements the tenant-scoped key–value engine: the
// operations the wire protocol ultimately calls, each running inside a
// single backing-store transaction attempt supplied by internal/txn.
package cabinet

import (
	"errors"
	"fmt"

	"github.com/cuemby/cabinetd/internal/item"
	"github.com/cuemby/cabinetd/internal/keys"
	"github.com/cuemby/cabinetd/internal/stats"
	"github.com/cuemby/cabinetd/internal/store"
)

// ErrNotFound is returned by Delete when no item is stored at the given
// key. Get does not return it; a missing key is a normal (nil, false)
// result there.
var ErrNotFound = errors.New("item not found")

// Cabinet is the tenant-scoped view of the backing store for a single
// transaction attempt. It is cheap to construct and carries no state of
// its own beyond the tenant name and the transaction handle; internal/txn
// constructs one per attempt.
type Cabinet struct {
	tenant string
	tx     store.Txn
	stats  *stats.Holder
}

// New returns a Cabinet scoped to tenant, operating within tx.
func New(tx store.Txn, tenant string) *Cabinet {
	return &Cabinet{
		tenant: tenant,
		tx:     tx,
		stats:  stats.New(tx, tenant),
	}
}

// Put stores value at key, creating it if absent or overwriting it if
// present.
//
// Put does not read the key's previous value first: an overwrite is a
// plain Set plus a stats.Put event, not a Set plus a compensating delta
// for whatever was there before. See stats.Holder.Update for the
// consequence this has on the tenant's counters.
func (c *Cabinet) Put(key, value []byte) error {
	it := item.New(key, value)
	c.tx.Set(keys.Data(c.tenant, key), it.AsBytes())
	return c.stats.Update(stats.PutEvent(it))
}

// Get returns the value stored at key, or (nil, false) if nothing is
// stored there.
func (c *Cabinet) Get(key []byte) ([]byte, bool, error) {
	raw, ok, err := c.tx.Get(keys.Data(c.tenant, key))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	it, err := item.FromBytes(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode stored item at key %q: %w", key, err)
	}
	return it.Value, true, nil
}

// Delete removes the item stored at key. It returns ErrNotFound if no
// item is stored there, matching the read-before-delete the backing
// cabinet performs so the stats decrement always has a real item to size.
func (c *Cabinet) Delete(key []byte) error {
	dataKey := keys.Data(c.tenant, key)
	raw, ok, err := c.tx.Get(dataKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	it, err := item.FromBytes(raw)
	if err != nil {
		return fmt.Errorf("decode stored item at key %q: %w", key, err)
	}

	c.tx.Clear(dataKey)
	return c.stats.Update(stats.DeleteEvent(it))
}

// Clear removes every item belonging to the tenant and resets both of its
// counters to zero.
func (c *Cabinet) Clear() error {
	start, end := keys.DataRange(c.tenant)
	c.tx.ClearRange(start, end)
	return c.stats.Update(stats.DeleteAllEvent())
}

// Stats returns the tenant's current cardinality and size counters.
func (c *Cabinet) Stats() (count, size int64, err error) {
	count, err = c.stats.GetCount()
	if err != nil {
		return 0, 0, err
	}
	size, err = c.stats.GetSize()
	if err != nil {
		return 0, 0, err
	}
	return count, size, nil
}
