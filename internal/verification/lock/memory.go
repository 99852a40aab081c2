package lock

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	workflowID string
	expiresAt  time.Time
}

// MemoryLock is the single-process default. Entries expire lazily so a
// crashed run cannot hold a driver forever.
type MemoryLock struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryLock(ttl time.Duration) *MemoryLock {
	return &MemoryLock{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (l *MemoryLock) Acquire(_ context.Context, driverID, workflowID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if e, ok := l.entries[driverID]; ok && e.expiresAt.After(now) {
		return false, nil
	}
	l.entries[driverID] = memoryEntry{workflowID: workflowID, expiresAt: now.Add(l.ttl)}
	return true, nil
}

func (l *MemoryLock) Release(_ context.Context, driverID, workflowID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[driverID]; ok && e.workflowID == workflowID {
		delete(l.entries, driverID)
	}
	return nil
}
