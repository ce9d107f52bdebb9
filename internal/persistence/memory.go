package persistence

import (
	"context"
	"sync"
)

// MemorySnapshotStore keeps snapshots in process memory. Used when no
// external backend is configured and as the Snapshotter in tests; state does
// not survive a restart.
type MemorySnapshotStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemorySnapshotStore creates an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{entries: make(map[string][]byte)}
}

// Save stores a copy of the snapshot.
func (s *MemorySnapshotStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append([]byte(nil), data...)
	return nil
}

// Load returns (nil, nil) when the key does not exist.
func (s *MemorySnapshotStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the snapshot.
func (s *MemorySnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
