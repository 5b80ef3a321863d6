// Package txn wraps internal/store.Database.Update with the retry-until-
// success semantics a FoundationDB client gives for free: it keeps
// discarding failed attempts and trying again until one commits or a
// fixed attempt budget runs out. It sets no idempotency option on the
// attempts it makes.
package txn

import (
	"context"
	"fmt"

	"github.com/cuemby/cabinetd/internal/cabinet"
	"github.com/cuemby/cabinetd/internal/store"
)

// Hooks lets a caller observe retries without this package importing
// pkg/metrics or pkg/log directly.
type Hooks struct {
	// OnRetry is invoked after a retryable attempt fails, before the next
	// attempt starts. It is not invoked when the failed attempt was the
	// last one allowed. attempt is 0-based.
	OnRetry func(attempt int, err error)
}

// DefaultMaxRetries bounds the retry loop when a caller doesn't override
// it. FoundationDB's own client retries indefinitely (bounded only by the
// transaction's time budget); bbolt gives this binding no equivalent
// clock, so a hard attempt count stands in for it and a persistently
// misbehaving backing store fails the request instead of looping forever.
const DefaultMaxRetries = 100

// WithTransaction runs fn inside a backing-store transaction attempt,
// retrying on a retryable error (per store.IsRetryable) for at most
// maxRetries attempts in total. A non-retryable error from fn, or from the
// backing store itself, is returned immediately without a further attempt.
//
// No idempotency option is passed to the backing store: store.Database
// has no way to carry one, and each attempt is a plain Database.Update
// call. bbolt's Update applies each attempt as a single local, synchronous
// all-or-nothing call, so with this backend an attempt never ends in an
// ambiguous commit that a retry could apply twice.
func WithTransaction[T any](ctx context.Context, db store.Database, maxRetries int, hooks Hooks, fn func(store.Txn) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		var result T
		err := db.Update(ctx, func(tx store.Txn) error {
			r, ferr := fn(tx)
			result = r
			return ferr
		})
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !store.IsRetryable(err) {
			return zero, err
		}
		if hooks.OnRetry != nil && attempt+1 < maxRetries {
			hooks.OnRetry(attempt, err)
		}
	}

	return zero, fmt.Errorf("exceeded max retries (%d): %w", maxRetries, lastErr)
}

// WithTenant is WithTransaction specialized to the common case: fn
// receives a cabinet.Cabinet already scoped to tenant instead of a raw
// store.Txn.
func WithTenant[T any](ctx context.Context, db store.Database, maxRetries int, hooks Hooks, tenant string, fn func(*cabinet.Cabinet) (T, error)) (T, error) {
	return WithTransaction(ctx, db, maxRetries, hooks, func(tx store.Txn) (T, error) {
		return fn(cabinet.New(tx, tenant))
	})
}
