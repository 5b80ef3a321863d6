// Package store defines the transactional key–value interface the rest of
// the service is built against, and provides a disk-backed implementation
// on top of go.etcd.io/bbolt.
//
// The interface is deliberately narrow: ordered byte-key storage, snapshot
// reads, range clears, and atomic-add mutations — the same small surface a
// FoundationDB-style backing store exposes. Nothing above this package
// knows or cares that the concrete implementation is a single-node embedded
// database rather than a distributed one; swapping in a different
// Database implementation (a real FDB binding, a different embedded
// engine) requires no change to internal/stats, internal/cabinet, or
// internal/txn.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Txn is a single attempt at a transaction: every read it performs sees
// the state at the start of the attempt plus this attempt's own earlier
// writes, and no write becomes visible outside the attempt until the
// enclosing Database.Update call returns nil, at which point all writes
// apply atomically or none do.
type Txn interface {
	// Get returns the value stored at key and true, or nil and false if no
	// value is stored there. The read never conflicts with concurrent
	// writers (a snapshot read).
	Get(key []byte) ([]byte, bool, error)

	// Set stores value at key, creating or overwriting it.
	Set(key, value []byte)

	// Clear removes any value stored at key. Clearing a missing key is a
	// no-op.
	Clear(key []byte)

	// ClearRange removes every key k such that start <= k < end.
	ClearRange(start, end []byte)

	// AtomicAdd adds delta to the little-endian signed 64-bit integer
	// stored at key, treating a missing key as zero. It never conflicts
	// with a concurrent AtomicAdd to the same key. Returns
	// ErrInvalidCounter if the stored value exists and is not exactly 8
	// bytes.
	AtomicAdd(key []byte, delta int64) error
}

// Database runs closures as transactions against the backing store.
type Database interface {
	// Update begins a transaction, invokes fn with a handle to it, and
	// commits fn's writes if fn returns nil. If fn returns an error, no
	// writes from this attempt are applied. The returned error is
	// classified by IsRetryable.
	Update(ctx context.Context, fn func(Txn) error) error

	// Close releases resources held by the backing store. It must be
	// called exactly once, on every shutdown path.
	Close() error
}

// ErrInvalidCounter is returned by AtomicAdd and by counter readers when a
// stored counter value is not exactly 8 bytes.
var ErrInvalidCounter = errors.New("invalid count stats value")

// Error wraps a backing-store failure with the retryable/non-retryable
// classification the transactional wrapper needs: retryable errors cause
// the wrapper to discard the attempt and try again with a fresh
// transaction; non-retryable errors unwind to the caller.
type Error struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err (or an error it wraps) is a retryable
// store.Error. Any other error, including a plain error returned by a
// caller's closure, is treated as non-retryable.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

func retryable(op string, err error) error {
	return &Error{Op: op, Err: err, Retryable: true}
}

func nonRetryable(op string, err error) error {
	return &Error{Op: op, Err: err, Retryable: false}
}
