package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"driveli/internal/verification"
	"driveli/pkg/platform/sentinel"
)

// MemoryVerificationStore is the unit test and local development backend.
type MemoryVerificationStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*verification.Verification
}

func NewMemoryVerificationStore() *MemoryVerificationStore {
	return &MemoryVerificationStore{records: make(map[uuid.UUID]*verification.Verification)}
}

func (s *MemoryVerificationStore) Save(_ context.Context, v *verification.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.records[v.ID] = &cp
	return nil
}

func (s *MemoryVerificationStore) FindByDriverAndType(_ context.Context, driverID string, t verification.CheckType) (*verification.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.records {
		if v.DriverID == driverID && v.Type == t {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryVerificationStore) ListByDriver(_ context.Context, driverID string) ([]verification.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []verification.Verification
	for _, v := range s.records {
		if v.DriverID == driverID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryVerificationStore) ListExpired(_ context.Context, now time.Time, limit int) ([]verification.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []verification.Verification
	for _, v := range s.records {
		if !v.Status.Succeeded() || v.RequiresReverification {
			continue
		}
		if v.ExpiresAt == nil || v.ExpiresAt.After(now) {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryVerificationStore) MarkReverification(_ context.Context, id uuid.UUID, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	v.RequiresReverification = true
	v.LastReverificationCheck = &checkedAt
	v.UpdatedAt = checkedAt
	return nil
}

// MemoryWorkflowStore keeps workflow runs in memory.
type MemoryWorkflowStore struct {
	mu        sync.RWMutex
	workflows map[uuid.UUID]*verification.Workflow
}

func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{workflows: make(map[uuid.UUID]*verification.Workflow)}
}

func (s *MemoryWorkflowStore) Save(_ context.Context, w *verification.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	cp.Stages = append([]verification.StageResult(nil), w.Stages...)
	s.workflows[w.ID] = &cp
	return nil
}

func (s *MemoryWorkflowStore) FindByID(_ context.Context, id uuid.UUID) (*verification.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *w
	cp.Stages = append([]verification.StageResult(nil), w.Stages...)
	return &cp, nil
}

func (s *MemoryWorkflowStore) ListByDriver(_ context.Context, driverID string) ([]verification.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []verification.Workflow
	for _, w := range s.workflows {
		if w.DriverID == driverID {
			cp := *w
			cp.Stages = append([]verification.StageResult(nil), w.Stages...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// MemoryOCRResultStore keeps extraction outcomes in memory.
type MemoryOCRResultStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*verification.DocumentOCRResult
}

func NewMemoryOCRResultStore() *MemoryOCRResultStore {
	return &MemoryOCRResultStore{results: make(map[uuid.UUID]*verification.DocumentOCRResult)}
}

func (s *MemoryOCRResultStore) Save(_ context.Context, r *verification.DocumentOCRResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.results[r.ID] = &cp
	return nil
}

func (s *MemoryOCRResultStore) ListByWorkflow(_ context.Context, workflowID uuid.UUID) ([]verification.DocumentOCRResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []verification.DocumentOCRResult
	for _, r := range s.results {
		if r.WorkflowID == workflowID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryRefereeStore keeps referee outcomes in memory.
type MemoryRefereeStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*verification.RefereeVerification
}

func NewMemoryRefereeStore() *MemoryRefereeStore {
	return &MemoryRefereeStore{records: make(map[uuid.UUID]*verification.RefereeVerification)}
}

func (s *MemoryRefereeStore) Save(_ context.Context, r *verification.RefereeVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *MemoryRefereeStore) ListByDriver(_ context.Context, driverID string) ([]verification.RefereeVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []verification.RefereeVerification
	for _, r := range s.records {
		if r.DriverID == driverID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
