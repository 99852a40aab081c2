// Package lock provides the per-driver mutual exclusion guard for workflow
// runs. The lock is advisory and TTL-bound; the database compare-and-set on
// the driver record remains the hard guarantee.
package lock

import "context"

// Lock grants at most one workflow per driver at a time. Acquire returns
// false without error when the driver is already held.
type Lock interface {
	Acquire(ctx context.Context, driverID, workflowID string) (bool, error)
	Release(ctx context.Context, driverID, workflowID string) error
}
