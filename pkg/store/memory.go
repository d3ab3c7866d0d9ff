package store

import (
	"context"
	"sync"
	"time"

	"github.com/kart-io/guard/pkg/errors"
)

// MemoryStore keeps records in process memory, in insertion order. It is
// the reference backend and the test double for everything that consumes a
// Store. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
	byID    map[string]*Record
	closed  bool
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Pager = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Record)}
}

// Save inserts or updates the record. A record without an ID gets a fresh
// ULID and CreatedAt; UpdatedAt is touched either way. The caller's record
// is updated with the assigned fields.
func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreUnavailable.WithMessage("memory store is closed")
	}

	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = NewRecordID()
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	if existing, ok := s.byID[r.ID]; ok {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = existing.CreatedAt
		}
		*existing = *r
		return nil
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	c := r.Clone()
	s.records = append(s.records, c)
	s.byID[c.ID] = c
	return nil
}

// Delete removes the record with the given ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrStoreUnavailable.WithMessage("memory store is closed")
	}

	if _, ok := s.byID[id]; !ok {
		return errors.ErrRecordNotFound
	}
	delete(s.byID, id)
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteMatching removes every record equal to the tuple and reports how
// many were removed.
func (s *MemoryStore) DeleteMatching(_ context.Context, effect Effect, principal, securable, action string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.ErrStoreUnavailable.WithMessage("memory store is closed")
	}

	var removed int64
	kept := s.records[:0]
	for _, r := range s.records {
		if r.Matches(effect, principal, securable, action) {
			delete(s.byID, r.ID)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// List returns records scoped to the securable plus wildcard-securable
// records, in insertion order. Wildcard lists everything.
func (s *MemoryStore) List(_ context.Context, securable string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.ErrStoreUnavailable.WithMessage("memory store is closed")
	}

	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		if securable != Wildcard && r.Securable != securable && r.Securable != Wildcard {
			continue
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

// Page returns the record count for the securable scope and one window of
// it.
func (s *MemoryStore) Page(ctx context.Context, securable string, offset, limit int) (int64, []*Record, error) {
	records, err := s.List(ctx, securable)
	if err != nil {
		return 0, nil, err
	}
	total, window := PageRecords(records, offset, limit)
	return total, window, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.ErrStoreUnavailable.WithMessage("memory store is closed")
	}
	return int64(len(s.records)), nil
}

// Close marks the store closed. Further operations fail with
// ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
