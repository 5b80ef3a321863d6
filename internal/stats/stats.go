// Package stats implements the per-tenant cardinality and storage-size
// counters, updated atomically in the same transaction as the data
// mutation that causes them to change.
package stats

import (
	"encoding/binary"

	"github.com/cuemby/cabinetd/internal/item"
	"github.com/cuemby/cabinetd/internal/keys"
	"github.com/cuemby/cabinetd/internal/store"
)

// Event describes why the counters are changing.
type Event struct {
	kind EventKind
	item item.Item
}

// EventKind distinguishes the three ways an item mutation affects the
// counters.
type EventKind int

const (
	// Put accounts for a new or overwritten item: +1 headcount, +len(item)
	// size. It does not first subtract the previous value at the key —
	// see Holder.Update's doc comment for the consequence.
	Put EventKind = iota
	// Delete accounts for a removed item: -1 headcount, -len(item) size.
	Delete
	// DeleteAll resets both counters to zero, for a tenant-wide clear.
	DeleteAll
)

// PutEvent builds the Event for storing it.
func PutEvent(it item.Item) Event { return Event{kind: Put, item: it} }

// DeleteEvent builds the Event for removing it.
func DeleteEvent(it item.Item) Event { return Event{kind: Delete, item: it} }

// DeleteAllEvent builds the Event for a tenant-wide clear.
func DeleteAllEvent() Event { return Event{kind: DeleteAll} }

// Holder reads and updates a single tenant's counters within an in-flight
// transaction. It holds no state across calls beyond the tenant name and
// the transaction it was constructed with: every method call is a direct
// read, atomic-add, or clear against the backing store.
type Holder struct {
	tenant string
	tx     store.Txn
}

// New returns a Holder scoped to tenant, operating within tx.
func New(tx store.Txn, tenant string) *Holder {
	return &Holder{tenant: tenant, tx: tx}
}

// GetCount returns the tenant's current item count (headcount).
func (h *Holder) GetCount() (int64, error) {
	return h.readCounter(keys.EntityHeadcount)
}

// GetSize returns the tenant's current total stored size, in bytes of
// item.Item.AsBytes() across every item the tenant has stored.
func (h *Holder) GetSize() (int64, error) {
	return h.readCounter(keys.EntitySizes)
}

func (h *Holder) readCounter(entity uint8) (int64, error) {
	key := keys.Counter(h.tenant, entity)
	v, ok, err := h.tx.Get(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, store.ErrInvalidCounter
	}
	return int64(binary.LittleEndian.Uint64(v)), nil
}

// Update applies ev to both the headcount and size counters.
//
// Update does not read the previous value stored at the item's key before
// applying a Put: a Put that overwrites an existing key increments the
// headcount and adds the new size without first reversing the old item's
// contribution, so an overwrite inflates both counters relative to the
// tenant's true distinct-key count and byte total. This mirrors the
// backing cabinet's put semantics exactly (see cabinet.Cabinet.Put) and is
// a documented hazard, not a bug: fixing it requires a read-before-write
// that the core deliberately omits.
func (h *Holder) Update(ev Event) error {
	switch ev.kind {
	case Put:
		if err := h.addHeadcount(1); err != nil {
			return err
		}
		return h.addSize(int64(len(ev.item.AsBytes())))
	case Delete:
		if err := h.addHeadcount(-1); err != nil {
			return err
		}
		return h.addSize(-int64(len(ev.item.AsBytes())))
	case DeleteAll:
		h.tx.Clear(keys.Counter(h.tenant, keys.EntityHeadcount))
		h.tx.Clear(keys.Counter(h.tenant, keys.EntitySizes))
		return nil
	default:
		return nil
	}
}

func (h *Holder) addHeadcount(delta int64) error {
	return h.tx.AtomicAdd(keys.Counter(h.tenant, keys.EntityHeadcount), delta)
}

func (h *Holder) addSize(delta int64) error {
	return h.tx.AtomicAdd(keys.Counter(h.tenant, keys.EntitySizes), delta)
}
