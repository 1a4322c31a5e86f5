package history

import (
	"context"
	"sync"
)

// MemoryStore keeps history for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = normalize(entries)
	return nil
}

// Record holds the lock across read and write so concurrent records do not
// lose entries.
func (s *MemoryStore) Record(ctx context.Context, token string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = Prepend(s.entries, token)
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
