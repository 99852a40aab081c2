package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"driveli/pkg/platform/sentinel"
)

// Queue feeds scheduler-initiated reverification runs into the
// orchestrator. It is bounded: a full queue rejects the enqueue and the
// scheduler retries the driver on its next sweep.
type Queue struct {
	ch     chan string
	o      *Orchestrator
	logger *slog.Logger
}

func NewQueue(o *Orchestrator, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{ch: make(chan string, size), o: o, logger: logger}
}

// Enqueue accepts one driver for reverification without blocking.
func (q *Queue) Enqueue(driverID string) bool {
	select {
	case q.ch <- driverID:
		return true
	default:
		return false
	}
}

// buildRequest reconstructs run inputs from the driver's most recent
// workflow so a reverification re-scores full evidence, not just the
// flagged provider checks. Documents were validated on first submission.
func (q *Queue) buildRequest(ctx context.Context, driverID string) RunRequest {
	req := RunRequest{DriverID: driverID}
	workflows, err := q.o.workflows.ListByDriver(ctx, driverID)
	if err != nil || len(workflows) == 0 {
		return req
	}
	latest := workflows[len(workflows)-1]

	docs, err := q.o.ocrResults.ListByWorkflow(ctx, latest.ID)
	if err == nil {
		seen := make(map[string]bool)
		for _, doc := range docs {
			if seen[doc.FileRef] {
				continue
			}
			seen[doc.FileRef] = true
			req.Documents = append(req.Documents, DocumentInput{Type: doc.DocumentType, FileRef: doc.FileRef})
		}
	}
	referees, err := q.o.referees.ListByDriver(ctx, driverID)
	if err == nil {
		for _, r := range referees {
			if r.WorkflowID == latest.ID {
				req.Referees = append(req.Referees, RefereeInput{Name: r.Name, Phone: r.Phone, Relationship: r.Relationship})
			}
		}
	}
	return req
}

// Run consumes queued drivers until the context is cancelled. Conflicts
// (a manual run already in flight) are expected and logged at debug.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case driverID := <-q.ch:
			req := q.buildRequest(ctx, driverID)
			_, err := q.o.run(ctx, uuid.New(), req, q.o.now(), true)
			switch {
			case err == nil:
			case errors.Is(err, sentinel.ErrConflict):
				q.logger.DebugContext(ctx, "reverification run skipped, driver busy", "driver_id", driverID)
			default:
				q.logger.ErrorContext(ctx, "reverification run failed", "driver_id", driverID, "error", err)
			}
		}
	}
}
