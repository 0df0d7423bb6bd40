package storage

import (
	"context"
	"slices"
	"sync"

	"expensetracker/internal/core"
)

// MemoryStore keeps the collection in process memory. Load and Save copy, so
// callers never share a backing array with the store.
type MemoryStore struct {
	mu    sync.Mutex
	items core.Collection
	saves int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(seed ...core.Expense) *MemoryStore {
	return &MemoryStore{items: slices.Clone(core.Collection(seed))}
}

func (s *MemoryStore) Load(_ context.Context) (core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(core.Collection, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, c core.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(c)
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
