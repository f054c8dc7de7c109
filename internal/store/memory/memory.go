// Package memory is the in-process record store backend: a mutex-guarded
// slice with subscription fan-out. It backs DATA_BACKEND=memory and every
// test that needs a store without external services.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cuentas/internal/core"
	"cuentas/internal/store"
)

type Store struct {
	mu      sync.Mutex
	items   []core.Record
	subs    map[int]func(records []core.Record)
	nextSub int
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{subs: map[int]func(records []core.Record){}}
}

// Seed loads an initial collection and notifies subscribers. Intended for
// tests and local fixtures.
func (s *Store) Seed(records []core.Record) {
	s.mu.Lock()
	s.items = append([]core.Record(nil), records...)
	fns, snap := s.fanout()
	s.mu.Unlock()
	notify(fns, snap)
}

// Subscribe registers fn, invokes it immediately with the current
// collection, and keeps invoking it after every mutation.
func (s *Store) Subscribe(fn func(records []core.Record)) store.Unsubscribe {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	snap := s.snapshot()
	s.mu.Unlock()

	fn(snap)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Create appends the record, assigning id and creation instant when unset.
func (s *Store) Create(_ context.Context, r core.Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}

	s.mu.Lock()
	s.items = append(s.items, r)
	fns, snap := s.fanout()
	s.mu.Unlock()

	notify(fns, snap)
	return r.ID, nil
}

// Delete removes the record with the given id. Absent ids are a no-op
// success; a push still follows so the collection state stays authoritative.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	kept := s.items[:0]
	for _, r := range s.items {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.items = kept
	fns, snap := s.fanout()
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *Store) snapshot() []core.Record {
	out := make([]core.Record, len(s.items))
	copy(out, s.items)
	return out
}

// fanout collects the subscriber callbacks and a snapshot under the lock so
// callbacks run without holding it.
func (s *Store) fanout() ([]func(records []core.Record), []core.Record) {
	fns := make([]func(records []core.Record), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns, s.snapshot()
}

func notify(fns []func(records []core.Record), snap []core.Record) {
	for _, fn := range fns {
		fn(snap)
	}
}
