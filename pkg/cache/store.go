package cache

import (
	"context"
	"sync"
)

// Store is a fragment storage backend keyed by fetch URL.
type Store interface {
	// Name labels the store in metrics and logs.
	Name() string

	// Get returns the entry for url or ErrCacheMiss.
	Get(ctx context.Context, url string) (*Entry, error)

	// Set stores entry under its URL, replacing any previous entry.
	Set(ctx context.Context, entry *Entry) error
}

// MemoryStore is an unbounded in-process store. Entries are never evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, url string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[url]
	if !ok {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.URL] = entry
	return nil
}

// Len returns the number of cached fragments.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
