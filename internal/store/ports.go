// Package store defines the ports for the live record collection. Backends
// deliver the FULL collection to subscribers on every change; consumers
// treat each push as a total replacement of their working set, never a diff.
package store

import (
	"context"
	"fmt"

	"cuentas/internal/core"
)

type (
	// Unsubscribe detaches a subscription callback.
	Unsubscribe func()

	// Subscriber registers a callback invoked once immediately with the
	// current collection and again after every mutation, local or remote.
	Subscriber interface {
		Subscribe(fn func(records []core.Record)) Unsubscribe
	}

	// Writer appends a record. The backend assigns the id; the write is
	// visible only through the next subscription push, never through the
	// return value.
	Writer interface {
		Create(ctx context.Context, r core.Record) (id string, err error)
	}

	// Deleter removes a record by id. Deleting an id that is already
	// absent resolves successfully.
	Deleter interface {
		Delete(ctx context.Context, id string) error
	}

	// RecordStore is the full store contract used by the ledger.
	RecordStore interface {
		Subscriber
		Writer
		Deleter
	}
)

// SyncError reports an unreachable or rejecting backing store. It is
// recoverable at the boundary: the caller surfaces it once and lets the
// user retry the originating action.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
