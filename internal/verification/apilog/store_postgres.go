package apilog

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists log entries in PostgreSQL. Inserts only; the table
// carries no update path by design of the schema.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO api_verification_logs (id, driver_id, provider, fingerprint, outcome, latency_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.DriverID, entry.Provider, entry.Fingerprint,
		entry.Outcome, entry.LatencyMS, entry.Error, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append api log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDriver(ctx context.Context, driverID string) ([]Entry, error) {
	query := `
		SELECT id, driver_id, provider, fingerprint, outcome, latency_ms, error, created_at
		FROM api_verification_logs
		WHERE driver_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list api log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DriverID, &e.Provider, &e.Fingerprint, &e.Outcome, &e.LatencyMS, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api log: %w", err)
	}
	return entries, nil
}
