package curriculum

import (
	"context"
	"sync"
)

// Store hands out read-only curriculum snapshots.
type Store interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	snapshot Snapshot
	mu       sync.RWMutex
}

// NewMemoryStore creates a store serving copies of snap.
func NewMemoryStore(snap Snapshot) *MemoryStore {
	return &MemoryStore{snapshot: *snap.Clone()}
}

// Replace swaps the stored snapshot.
func (s *MemoryStore) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = *snap.Clone()
}

func (s *MemoryStore) Snapshot(_ context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone(), nil
}
