// Package events publishes verification lifecycle events for downstream
// consumers (onboarding, notifications, compliance reporting).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the workflow.
const (
	TypeWorkflowCompleted      = "verification.workflow.completed"
	TypeWorkflowFailed         = "verification.workflow.failed"
	TypeRequiresReverification = "verification.driver.requires_reverification"
)

// Event is one verification lifecycle notification. DriverID keys the
// message so per-driver ordering survives partitioning.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	DriverID   string     `json:"driver_id"`
	WorkflowID *uuid.UUID `json:"workflow_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Score      int        `json:"score,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Publisher delivers events. Publishing is best effort from the workflow's
// point of view; failures are logged, never fail the run.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
