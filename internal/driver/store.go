package driver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"driveli/internal/verification"
)

// VerificationState is the atomically-written slice of a driver record that
// this subsystem owns. Status, score and summary always change together so a
// crash can never leave a transition half-recorded.
type VerificationState struct {
	Status       Status
	OverallScore int
	Summary      verification.Summary
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Store is interface-driven to keep the workflow testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code.
type Store interface {
	Save(ctx context.Context, d *Driver) error
	FindByID(ctx context.Context, id string) (*Driver, error)

	// SetCurrentWorkflow is a compare-and-set on current_workflow_id: it
	// succeeds only when no workflow is currently recorded, providing the
	// single-writer guarantee backing the per-driver lock.
	SetCurrentWorkflow(ctx context.Context, driverID string, workflowID uuid.UUID) error

	// ClearCurrentWorkflow releases the guard; only the holding workflow may
	// clear it.
	ClearCurrentWorkflow(ctx context.Context, driverID string, workflowID uuid.UUID) error

	// UpdateVerificationState persists a status transition atomically.
	UpdateVerificationState(ctx context.Context, driverID string, state VerificationState) error
}
