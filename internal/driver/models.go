package driver

import (
	"time"

	"github.com/google/uuid"

	"driveli/internal/verification"
)

// Status is the driver-level verification status. It is owned exclusively by
// the verification subsystem; the surrounding application only reads it.
type Status string

const (
	StatusUnverified             Status = "unverified"
	StatusInProgress             Status = "in_progress"
	StatusVerified               Status = "verified"
	StatusRejected               Status = "rejected"
	StatusRequiresReverification Status = "requires_reverification"
)

// Driver is the identity subject. The record is owned by the surrounding
// application; this subsystem reads it and updates only the verification
// fields below.
type Driver struct {
	ID   string
	Code string

	FullName    string
	Phone       string
	Address     string
	DateOfBirth string // YYYY-MM-DD as claimed at registration

	// Claimed credentials checked against the external registries.
	ClaimedNIN       string
	ClaimedLicenseNo string
	PhotoRef         string

	Active bool

	Status                  Status
	OverallScore            int
	Summary                 verification.Summary
	VerificationStartedAt   *time.Time
	VerificationCompletedAt *time.Time
	CurrentWorkflowID       *uuid.UUID
}
