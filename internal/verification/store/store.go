// Package store persists verification records, workflow runs, OCR results
// and referee checks. Interfaces come first; memory and PostgreSQL
// implementations are interchangeable.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"driveli/internal/verification"
)

// VerificationStore holds per-check Verification records. One row per
// driver and check type; reruns update in place, the raw payload history
// lives in the api verification log.
type VerificationStore interface {
	Save(ctx context.Context, v *verification.Verification) error
	FindByDriverAndType(ctx context.Context, driverID string, t verification.CheckType) (*verification.Verification, error)
	ListByDriver(ctx context.Context, driverID string) ([]verification.Verification, error)

	// ListExpired returns successful checks whose expiry has passed and that
	// have not yet been flagged, oldest first.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]verification.Verification, error)

	// MarkReverification flags one record and stamps the sweep time.
	MarkReverification(ctx context.Context, id uuid.UUID, checkedAt time.Time) error
}

// WorkflowStore holds orchestration runs.
type WorkflowStore interface {
	Save(ctx context.Context, w *verification.Workflow) error
	FindByID(ctx context.Context, id uuid.UUID) (*verification.Workflow, error)
	ListByDriver(ctx context.Context, driverID string) ([]verification.Workflow, error)
}

// OCRResultStore holds per-document extraction outcomes.
type OCRResultStore interface {
	Save(ctx context.Context, r *verification.DocumentOCRResult) error
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]verification.DocumentOCRResult, error)
}

// RefereeStore holds referee contact outcomes.
type RefereeStore interface {
	Save(ctx context.Context, r *verification.RefereeVerification) error
	ListByDriver(ctx context.Context, driverID string) ([]verification.RefereeVerification, error)
}
