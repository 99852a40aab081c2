// Package scheduler periodically sweeps for expired verifications, flags
// them for reverification and enqueues fresh workflow runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"driveli/internal/verification/events"
	"driveli/internal/verification/metrics"
	"driveli/internal/verification/store"
	"driveli/pkg/platform/sentinel"
)

// StatusMarker flags a driver whose credentials have expired. Implemented
// by the status service.
type StatusMarker interface {
	MarkRequiresReverification(ctx context.Context, driverID string) error
}

// Enqueuer accepts reverification run requests. Implemented by the
// orchestrator queue. Enqueue must not block; a full queue returns false
// and the driver is retried on the next sweep.
type Enqueuer interface {
	Enqueue(driverID string) bool
}

// SweepResult summarizes one pass.
type SweepResult struct {
	Marked   int
	Enqueued int
}

// Scheduler owns the reverification loop.
type Scheduler struct {
	checks    store.VerificationStore
	marker    StatusMarker
	enqueuer  Enqueuer
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func New(checks store.VerificationStore, marker StatusMarker, enqueuer Enqueuer, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		checks:    checks,
		marker:    marker,
		enqueuer:  enqueuer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			result, err := s.Sweep(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "reverification sweep failed", "error", err)
				continue
			}
			if result.Marked > 0 {
				s.logger.InfoContext(ctx, "reverification sweep",
					"marked", result.Marked,
					"enqueued", result.Enqueued,
				)
			}
		}
	}
}

// Sweep runs one pass. Marking is idempotent: a record flagged in an
// earlier pass no longer matches the expired query, so repeat sweeps over
// the same data change nothing.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	expired, err := s.checks.ListExpired(ctx, now, s.batchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list expired verifications: %w", err)
	}

	var result SweepResult
	seen := make(map[string]bool)
	for _, v := range expired {
		if err := s.checks.MarkReverification(ctx, v.ID, now); err != nil {
			s.logger.ErrorContext(ctx, "mark reverification failed",
				"verification_id", v.ID,
				"driver_id", v.DriverID,
				"error", err,
			)
			continue
		}
		result.Marked++

		if seen[v.DriverID] {
			continue
		}
		seen[v.DriverID] = true

		if err := s.marker.MarkRequiresReverification(ctx, v.DriverID); err != nil {
			// A driver already rejected or mid-run keeps its status; the
			// flagged verification record is enough to pick it up later.
			if !errors.Is(err, sentinel.ErrInvalidState) {
				s.logger.ErrorContext(ctx, "mark driver for reverification failed",
					"driver_id", v.DriverID,
					"error", err,
				)
				continue
			}
		}

		if s.publisher != nil {
			event := events.Event{
				ID:         uuid.New(),
				Type:       events.TypeRequiresReverification,
				DriverID:   v.DriverID,
				OccurredAt: now,
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.WarnContext(ctx, "publish reverification event failed",
					"driver_id", v.DriverID,
					"error", err,
				)
			}
		}

		if s.enqueuer != nil && s.enqueuer.Enqueue(v.DriverID) {
			result.Enqueued++
		}
	}

	s.metrics.AddSweepResults(result.Marked, result.Enqueued)
	return result, nil
}
