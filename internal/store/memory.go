package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sort"
	"sync"
)

// MemoryDatabase is an in-process Database backed by a sorted map and a
// single mutex. It satisfies the same atomicity contract as BoltDatabase
// (every Update either applies in full or not at all) without touching
// disk, so internal/stats, internal/cabinet, and internal/txn can be
// tested without t.TempDir() and a real bbolt file. It is test scaffolding,
// not a second production backend: production always runs BoltDatabase.
type MemoryDatabase struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty MemoryDatabase.
func NewMemory() *MemoryDatabase {
	return &MemoryDatabase{data: make(map[string][]byte)}
}

// Close implements Database.
func (m *MemoryDatabase) Close() error { return nil }

// Update implements Database. The closure runs against a private copy of
// the whole map; on a non-nil return the copy is discarded
// and the live map is left untouched, giving the same all-or-nothing
// guarantee bbolt's Update gives.
func (m *MemoryDatabase) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return nonRetryable("update", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		staged[k] = v
	}

	t := &memoryTxn{staged: staged}
	if err := fn(t); err != nil {
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return nonRetryable("update", err)
	}

	m.data = staged
	return nil
}

type memoryTxn struct {
	staged map[string][]byte
}

func (t *memoryTxn) Get(key []byte) ([]byte, bool, error) {
	v, ok := t.staged[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (t *memoryTxn) Set(key, value []byte) {
	t.staged[string(key)] = append([]byte(nil), value...)
}

func (t *memoryTxn) Clear(key []byte) {
	delete(t.staged, string(key))
}

func (t *memoryTxn) ClearRange(start, end []byte) {
	var toDelete []string
	for k := range t.staged {
		kb := []byte(k)
		if bytes.Compare(kb, start) >= 0 && bytes.Compare(kb, end) < 0 {
			toDelete = append(toDelete, k)
		}
	}
	sort.Strings(toDelete)
	for _, k := range toDelete {
		delete(t.staged, k)
	}
}

func (t *memoryTxn) AtomicAdd(key []byte, delta int64) error {
	var current int64
	if v, ok := t.staged[string(key)]; ok {
		if len(v) != 8 {
			return nonRetryable("atomic_add", ErrInvalidCounter)
		}
		current = int64(binary.LittleEndian.Uint64(v))
	}

	next := current + delta
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(next))
	t.staged[string(key)] = buf
	return nil
}
