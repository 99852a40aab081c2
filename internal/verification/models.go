// Package verification holds the shared domain model for the driver
// verification workflow: per-check Verification records, OCR results,
// referee checks and workflow runs. Subpackages implement the services
// that operate on these types.
package verification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CheckType identifies one kind of verification check.
type CheckType string

const (
	CheckNIN         CheckType = "nin"
	CheckLicense     CheckType = "license"
	CheckFacial      CheckType = "facial"
	CheckReferee     CheckType = "referee"
	CheckDocumentOCR CheckType = "document_ocr"
)

// MandatoryChecks must all reach a definitive outcome before a driver can be
// verified or rejected.
var MandatoryChecks = []CheckType{CheckNIN, CheckLicense, CheckDocumentOCR}

// IsMandatory reports whether the check type gates the driver-level status.
func (t CheckType) IsMandatory() bool {
	for _, m := range MandatoryChecks {
		if t == m {
			return true
		}
	}
	return false
}

// CheckStatus is the lifecycle of a single Verification record.
type CheckStatus string

const (
	CheckPending    CheckStatus = "pending"
	CheckInProgress CheckStatus = "in_progress"
	CheckCompleted  CheckStatus = "completed"
	CheckFailed     CheckStatus = "failed"
	CheckApproved   CheckStatus = "approved"
	CheckRejected   CheckStatus = "rejected"
)

// Terminal reports whether the status is a definitive per-check outcome. A
// check left pending by an unavailable provider is not terminal; it is
// retried on the next run.
func (s CheckStatus) Terminal() bool {
	switch s {
	case CheckCompleted, CheckFailed, CheckApproved, CheckRejected:
		return true
	}
	return false
}

// Succeeded reports whether the check produced a usable positive result.
func (s CheckStatus) Succeeded() bool {
	return s == CheckCompleted || s == CheckApproved
}

// Verification is one check of one claim about a driver. Records are never
// hard-deleted; they are the audit trail of what was checked and when.
type Verification struct {
	ID       uuid.UUID
	DriverID string
	Type     CheckType
	Status   CheckStatus

	// Score is set only once Status is terminal and successful.
	Score *float64

	// ExpiresAt is nil for checks with no natural expiry (e.g. the facial
	// match taken at registration).
	ExpiresAt               *time.Time
	RequiresReverification  bool
	LastReverificationCheck *time.Time

	// Attempts counts runs that left this check non-terminal because the
	// provider was unavailable. At the configured maximum the check is
	// treated as definitively failed.
	Attempts int

	// Raw holds the provider payload for debugging; it is logged, never
	// surfaced to end users.
	Raw json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentOCRResult is the extraction outcome for one submitted document.
type DocumentOCRResult struct {
	ID           uuid.UUID
	DriverID     string
	WorkflowID   uuid.UUID
	DocumentType string
	FileRef      string
	Fields       map[string]string
	Confidence   float64
	// MatchScore is the agreement between extracted fields and the driver's
	// claimed identity, 0..1.
	MatchScore float64
	Failed     bool
	FailReason string
	CreatedAt  time.Time
}

// RefereeVerification records the outcome of contacting one submitted referee.
type RefereeVerification struct {
	ID           uuid.UUID
	DriverID     string
	WorkflowID   uuid.UUID
	Name         string
	Phone        string
	Relationship string
	Verified     bool
	Notes        string
	CreatedAt    time.Time
}

// WorkflowStatus is the lifecycle of one orchestration run.
type WorkflowStatus string

const (
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowCompleted  WorkflowStatus = "completed"
	WorkflowFailed     WorkflowStatus = "failed"
)

// StageResult is the terminal outcome of one unit of work inside a run.
type StageResult struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Score  *float64    `json:"score,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// Workflow is one end-to-end orchestration run for a driver. At most one
// workflow may be in progress per driver at a time.
type Workflow struct {
	ID       uuid.UUID
	DriverID string
	Status   WorkflowStatus

	// CompletionPercentage is the share of expected stages that completed
	// successfully, 0..100.
	CompletionPercentage int
	OverallScore         int

	StartedAt   time.Time
	CompletedAt *time.Time
	Stages      []StageResult
}

// CheckSnapshot is the per-check slice of a driver's verification summary.
type CheckSnapshot struct {
	Status CheckStatus `json:"status"`
	Score  *float64    `json:"score,omitempty"`
}

// Summary is the persisted per-check snapshot written on every driver status
// transition.
type Summary map[CheckType]CheckSnapshot
