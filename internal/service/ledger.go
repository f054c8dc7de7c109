// Package service orchestrates the record store, the session identity and
// the aggregation engine. The ledger owns the only piece of mutable state
// in the system: the latest full collection pushed by the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cuentas/internal/core"
	"cuentas/internal/session"
	"cuentas/internal/stats"
	"cuentas/internal/store"
)

// ErrNoSession reports a write attempted before session establishment.
var ErrNoSession = errors.New("no current session")

// InsufficientStockError rejects a stock-category record whose quantity
// exceeds the remaining stock. This is the admission check: best-effort and
// client-side only, no server-side enforcement exists behind it.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, %d available", e.Requested, e.Available)
}

type Ledger struct {
	store    store.RecordStore
	sessions *session.Provider
	params   stats.Params
	taxonomy core.Taxonomy

	mu      sync.RWMutex
	records []core.Record
	ready   bool
	unsub   store.Unsubscribe
}

// NewLedger subscribes to the store and starts absorbing collection pushes.
// Each push replaces the working set wholesale; there is no diffing and no
// merging of concurrent edits, the last push wins.
func NewLedger(st store.RecordStore, sessions *session.Provider, params stats.Params, taxonomy core.Taxonomy) *Ledger {
	l := &Ledger{
		store:    st,
		sessions: sessions,
		params:   params,
		taxonomy: taxonomy,
	}
	l.unsub = st.Subscribe(l.onPush)
	return l
}

func (l *Ledger) Close() {
	if l.unsub != nil {
		l.unsub()
	}
}

func (l *Ledger) onPush(records []core.Record) {
	l.mu.Lock()
	l.records = records
	l.ready = true
	l.mu.Unlock()
	slog.Debug("Collection push absorbed", "records", len(records))
}

// Ready reports whether the first collection push has arrived.
func (l *Ledger) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// Taxonomy returns the enumerations drafts are validated against.
func (l *Ledger) Taxonomy() core.Taxonomy { return l.taxonomy }

// Params returns the fixed business constants.
func (l *Ledger) Params() stats.Params { return l.params }

// Records returns the full collection sorted date-descending.
func (l *Ledger) Records() []core.Record {
	return stats.SortByDateDesc(l.snapshot())
}

// MonthRecords returns the records of one month/year selection, sorted
// date-descending with the creation-instant tie-break.
func (l *Ledger) MonthRecords(month time.Month, year int) []core.Record {
	return stats.SortByDateDesc(stats.FilterByMonth(l.snapshot(), month, year))
}

// Stats derives the snapshot for the given selection from the latest push.
func (l *Ledger) Stats(month time.Month, year int) stats.Snapshot {
	return stats.Compute(l.snapshot(), month, year, l.params)
}

// Annual derives the twelve-month series for the given year.
func (l *Ledger) Annual(year int) []stats.MonthlyTotal {
	return stats.AnnualSeries(l.snapshot(), year)
}

// Create validates the draft, runs the stock admission check against the
// CURRENT collection, stamps the session identity and writes to the store.
// The new record becomes visible only through the next subscription push;
// no optimistic local echo is applied.
func (l *Ledger) Create(ctx context.Context, draft core.RecordDraft) (string, error) {
	sess, ok := l.sessions.Current()
	if !ok {
		return "", ErrNoSession
	}

	draft = draft.Normalize()
	if err := draft.Validate(l.taxonomy); err != nil {
		return "", err
	}

	if draft.Category == l.params.StockCategory {
		available := stats.StockRemaining(l.snapshot(), l.params)
		if available < draft.Quantity {
			return "", &InsufficientStockError{Requested: draft.Quantity, Available: available}
		}
	}

	rec := core.Record{
		Kind:     draft.Kind,
		Category: draft.Category,
		Amount:   draft.Amount,
		Quantity: draft.Quantity,
		Subject:  draft.Subject,
		Contact:  draft.Contact,
		Payment:  draft.Payment,
		Note:     draft.Note,
		Date:     draft.Date,
		OwnerID:  sess.ID,
	}

	id, err := l.store.Create(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	slog.InfoContext(ctx, "Record admitted",
		"id", id,
		"kind", rec.Kind,
		"category", rec.Category,
		"amount", rec.Amount,
		"owner", sess.ID)

	return id, nil
}

// Delete removes a record by id. Deleting an already-absent id resolves
// successfully per the store contract.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	slog.InfoContext(ctx, "Record removal issued", "id", id)
	return nil
}

func (l *Ledger) snapshot() []core.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records
}
