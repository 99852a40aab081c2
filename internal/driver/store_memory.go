package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"driveli/pkg/platform/sentinel"
)

// MemoryStore keeps drivers in memory. It intentionally favors clarity over
// performance and is the local development and unit test default.
type MemoryStore struct {
	mu      sync.RWMutex
	drivers map[string]*Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drivers: make(map[string]*Driver)}
}

func (s *MemoryStore) Save(_ context.Context, d *Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.drivers[d.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) SetCurrentWorkflow(_ context.Context, driverID string, workflowID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.CurrentWorkflowID != nil {
		return fmt.Errorf("driver %s already has workflow %s: %w", driverID, d.CurrentWorkflowID, sentinel.ErrConflict)
	}
	wf := workflowID
	d.CurrentWorkflowID = &wf
	return nil
}

func (s *MemoryStore) ClearCurrentWorkflow(_ context.Context, driverID string, workflowID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.CurrentWorkflowID == nil || *d.CurrentWorkflowID != workflowID {
		return fmt.Errorf("workflow %s does not hold driver %s: %w", workflowID, driverID, sentinel.ErrInvalidState)
	}
	d.CurrentWorkflowID = nil
	return nil
}

func (s *MemoryStore) UpdateVerificationState(_ context.Context, driverID string, state VerificationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.Status = state.Status
	d.OverallScore = state.OverallScore
	d.Summary = state.Summary
	if state.StartedAt != nil {
		d.VerificationStartedAt = state.StartedAt
	}
	if state.CompletedAt != nil {
		d.VerificationCompletedAt = state.CompletedAt
	}
	return nil
}
