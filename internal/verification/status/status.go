// Package status owns the driver-level verification state machine. All
// transitions of driver.Status go through this service so the allowed-edge
// table is enforced in exactly one place.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/pkg/platform/sentinel"
)

// transitions is the full set of legal driver status edges. Anything not
// listed is rejected with sentinel.ErrInvalidState.
var transitions = map[driver.Status][]driver.Status{
	driver.StatusUnverified:             {driver.StatusInProgress},
	driver.StatusInProgress:             {driver.StatusInProgress, driver.StatusVerified, driver.StatusRejected},
	driver.StatusVerified:               {driver.StatusInProgress, driver.StatusRequiresReverification},
	driver.StatusRejected:               {driver.StatusInProgress},
	driver.StatusRequiresReverification: {driver.StatusInProgress},
}

// CanTransition reports whether the edge from one status to another is legal.
func CanTransition(from, to driver.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service applies verification outcomes to driver records.
type Service struct {
	store     driver.Store
	threshold int
	logger    *slog.Logger
}

func NewService(store driver.Store, threshold int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, threshold: threshold, logger: logger}
}

// Begin moves the driver into in_progress at the start of a workflow run.
func (s *Service) Begin(ctx context.Context, driverID string, startedAt time.Time) error {
	d, err := s.store.FindByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("find driver: %w", err)
	}
	if !CanTransition(d.Status, driver.StatusInProgress) {
		return fmt.Errorf("transition %s -> %s: %w", d.Status, driver.StatusInProgress, sentinel.ErrInvalidState)
	}
	return s.store.UpdateVerificationState(ctx, driverID, driver.VerificationState{
		Status:       driver.StatusInProgress,
		OverallScore: d.OverallScore,
		Summary:      d.Summary,
		StartedAt:    &startedAt,
	})
}

// Decide maps a composite score and the per-check outcomes onto a driver
// status. A definitive failure of any mandatory check rejects outright; a
// passing score promotes only when every mandatory check succeeded. Checks
// left non-terminal by unavailable providers keep the driver in progress.
func Decide(score, threshold int, summary verification.Summary) driver.Status {
	for _, check := range verification.MandatoryChecks {
		snap, ok := summary[check]
		if ok && snap.Status.Terminal() && !snap.Status.Succeeded() {
			return driver.StatusRejected
		}
	}

	for _, check := range verification.MandatoryChecks {
		snap, ok := summary[check]
		if !ok || !snap.Status.Succeeded() {
			return driver.StatusInProgress
		}
	}

	if score >= threshold {
		return driver.StatusVerified
	}
	return driver.StatusRejected
}

// Evaluate decides and persists the driver status after a workflow run. The
// returned status is what was written.
func (s *Service) Evaluate(ctx context.Context, driverID string, score int, summary verification.Summary, startedAt, now time.Time) (driver.Status, error) {
	d, err := s.store.FindByID(ctx, driverID)
	if err != nil {
		return "", fmt.Errorf("find driver: %w", err)
	}

	next := Decide(score, s.threshold, summary)
	if !CanTransition(d.Status, next) {
		return "", fmt.Errorf("transition %s -> %s: %w", d.Status, next, sentinel.ErrInvalidState)
	}

	state := driver.VerificationState{
		Status:       next,
		OverallScore: score,
		Summary:      summary,
		StartedAt:    &startedAt,
	}
	if next == driver.StatusVerified || next == driver.StatusRejected {
		state.CompletedAt = &now
	}
	if err := s.store.UpdateVerificationState(ctx, driverID, state); err != nil {
		return "", fmt.Errorf("update driver state: %w", err)
	}

	s.logger.InfoContext(ctx, "driver status evaluated",
		"driver_id", driverID,
		"from", d.Status,
		"to", next,
		"score", score,
	)
	return next, nil
}

// MarkRequiresReverification flags a verified driver whose credentials have
// expired. Only the reverification scheduler calls this.
func (s *Service) MarkRequiresReverification(ctx context.Context, driverID string) error {
	d, err := s.store.FindByID(ctx, driverID)
	if err != nil {
		return fmt.Errorf("find driver: %w", err)
	}
	if d.Status == driver.StatusRequiresReverification {
		return nil
	}
	if !CanTransition(d.Status, driver.StatusRequiresReverification) {
		return fmt.Errorf("transition %s -> %s: %w", d.Status, driver.StatusRequiresReverification, sentinel.ErrInvalidState)
	}
	return s.store.UpdateVerificationState(ctx, driverID, driver.VerificationState{
		Status:       driver.StatusRequiresReverification,
		OverallScore: d.OverallScore,
		Summary:      d.Summary,
	})
}

// Threshold exposes the configured pass mark.
func (s *Service) Threshold() int { return s.threshold }
