// Package sqlite is the persistent record store backend. Every local
// mutation reloads the full collection and pushes it to subscribers; when an
// event bus is attached, change events from other processes sharing the
// database trigger the same reload, so remote mutations become visible the
// same way local ones do.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cuentas/internal/bus"
	"cuentas/internal/core"
	"cuentas/internal/store"
)

// ErrNotFound reports a lookup of an id that is not in the collection.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	db     *sql.DB
	events *bus.Client // optional change broadcast

	mu      sync.Mutex
	subs    map[int]func(records []core.Record)
	nextSub int
}

var _ store.RecordStore = (*Repository)(nil)

// NewRepository opens (or creates) the database, applies migrations and
// returns a ready store. The bus client may be nil for single-process use.
func NewRepository(dbPath string, events *bus.Client) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:     db,
		events: events,
		subs:   map[int]func(records []core.Record){},
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Subscribe registers fn and invokes it immediately with the current
// collection. A failed initial load still delivers a push (empty) so the
// consumer starts from a defined state.
func (r *Repository) Subscribe(fn func(records []core.Record)) store.Unsubscribe {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	records, err := r.loadAll(context.Background())
	if err != nil {
		slog.Error("Initial collection load failed", "error", err)
	}
	fn(records)

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Create inserts the record, assigning id and creation instant when unset,
// then pushes the refreshed collection and broadcasts the change.
func (r *Repository) Create(ctx context.Context, rec core.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records (id, kind, category, amount, quantity, subject, contact, payment, note, date, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Category, rec.Amount, rec.Quantity,
		rec.Subject, rec.Contact, rec.Payment, rec.Note,
		rec.Date.String(), rec.OwnerID, rec.CreatedAt)
	if err != nil {
		return "", &store.SyncError{Op: "create", Err: err}
	}

	slog.InfoContext(ctx, "Record saved",
		"id", rec.ID,
		"kind", rec.Kind,
		"category", rec.Category,
		"amount", rec.Amount)

	r.broadcast(ctx, bus.ActionCreate, rec.ID)
	r.pushSnapshot(ctx)
	return rec.ID, nil
}

// Delete removes the record. An absent id resolves successfully; the
// collection push still follows so subscribers converge.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return &store.SyncError{Op: "delete", Err: err}
	}

	slog.InfoContext(ctx, "Record deleted", "id", id)

	r.broadcast(ctx, bus.ActionDelete, id)
	r.pushSnapshot(ctx)
	return nil
}

// Get returns a single record by id. Used by the sheets mirror worker.
func (r *Repository) Get(ctx context.Context, id string) (core.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, category, amount, quantity, subject, contact, payment, note, date, owner_id, created_at
		FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

// RunEventFeed consumes change events from other processes until the
// context ends, reloading and pushing the collection for each foreign
// event. No-op when no bus is attached.
func (r *Repository) RunEventFeed(ctx context.Context) error {
	if r.events == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.events.ConsumeRecordEvents(ctx, func(ctx context.Context, e *bus.RecordEvent) error {
		slog.InfoContext(ctx, "Remote record change",
			"action", e.Action,
			"record_id", e.RecordID)
		r.pushSnapshot(ctx)
		return nil
	})
}

func (r *Repository) broadcast(ctx context.Context, action, id string) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishRecordEvent(ctx, action, id); err != nil {
		// Best-effort: the local write already succeeded.
		slog.WarnContext(ctx, "Failed to broadcast record event",
			"action", action, "record_id", id, "error", err)
	}
}

func (r *Repository) pushSnapshot(ctx context.Context) {
	records, err := r.loadAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Collection reload failed", "error", err)
		return
	}

	r.mu.Lock()
	fns := make([]func(records []core.Record), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(records)
	}
}

func (r *Repository) loadAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, category, amount, quantity, subject, contact, payment, note, date, owner_id, created_at
		FROM records ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		rec  core.Record
		kind string
		date string
	)
	err := row.Scan(&rec.ID, &kind, &rec.Category, &rec.Amount, &rec.Quantity,
		&rec.Subject, &rec.Contact, &rec.Payment, &rec.Note,
		&date, &rec.OwnerID, &rec.CreatedAt)
	if err != nil {
		return core.Record{}, err
	}
	rec.Kind = core.Kind(kind)
	// Malformed dates from older writers are coerced to the zero date here
	// rather than surfacing from the aggregation path.
	if d, perr := core.ParseDate(date); perr == nil {
		rec.Date = d
	}
	return rec, nil
}
