// Package worker consumes record change events and mirrors created records
// into the spreadsheet copy. Mirroring is decoupled from the write path: a
// broken mirror never blocks or fails record admission.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cuentas/internal/bus"
	"cuentas/internal/core"
	"cuentas/internal/store/sqlite"
)

type (
	// RecordSource loads full records by id; the event only carries the id.
	RecordSource interface {
		Get(ctx context.Context, id string) (core.Record, error)
	}

	// Appender adds one row per record to the mirror target.
	Appender interface {
		Append(ctx context.Context, r core.Record) (rowRef string, err error)
	}

	MirrorWorker struct {
		source RecordSource
		mirror Appender
	}
)

func NewMirrorWorker(source RecordSource, mirror Appender) *MirrorWorker {
	return &MirrorWorker{source: source, mirror: mirror}
}

// HandleEvent processes a single record change event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, e *bus.RecordEvent) error {
	switch e.Action {
	case bus.ActionCreate:
		return w.mirrorCreate(ctx, e.RecordID)
	case bus.ActionDelete:
		// The mirror is append-only; deletions stay visible in the
		// database-backed views and are only noted here.
		slog.InfoContext(ctx, "Record deleted upstream, mirror row kept",
			"record_id", e.RecordID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown record event action",
			"action", e.Action, "record_id", e.RecordID)
		return nil
	}
}

func (w *MirrorWorker) mirrorCreate(ctx context.Context, id string) error {
	rec, err := w.source.Get(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		// Created and deleted before we got to it; nothing to mirror.
		slog.InfoContext(ctx, "Record gone before mirroring", "record_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load record %s: %w", id, err)
	}

	ref, err := w.mirror.Append(ctx, rec)
	if err != nil {
		return fmt.Errorf("mirror record %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Record mirrored",
		"record_id", id,
		"row_ref", ref,
		"category", rec.Category,
		"amount", rec.Amount)

	return nil
}
