package apilog

import (
	"context"
	"sync"
)

// MemoryStore keeps log entries in memory for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.DriverID] = append(s.entries[entry.DriverID], entry)
	return nil
}

func (s *MemoryStore) ListByDriver(_ context.Context, driverID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[driverID]...), nil
}
