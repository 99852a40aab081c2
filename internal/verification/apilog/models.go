// Package apilog records every external-provider call made by the
// verification workflow. The log is append-only and is the sole source of
// truth for provider SLAs and debugging; entries are never updated.
package apilog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one provider call. Raw payloads and error detail live here, not
// in user-facing results.
type Entry struct {
	ID          uuid.UUID
	DriverID    string
	Provider    string
	Fingerprint string
	Outcome     string
	LatencyMS   int64
	Error       string
	CreatedAt   time.Time
}

// Store is append-only. Keep it transport-agnostic so sinks can fan out.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByDriver(ctx context.Context, driverID string) ([]Entry, error)
}
