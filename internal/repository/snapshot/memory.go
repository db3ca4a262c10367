package snapshot

import (
	"context"
	"sync"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
)

// MemoryStore keeps the encoded snapshot in memory. Saved snapshots are
// encoded so later changes by the caller never leak into the stored copy.
type MemoryStore struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

var _ domain.SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load decodes the last saved snapshot
func (s *MemoryStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return Empty(), nil
	}
	return Decode(s.data)
}

// Save replaces the stored snapshot
func (s *MemoryStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves returns how many times Save succeeded
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
