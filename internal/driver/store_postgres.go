package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"driveli/internal/verification"
	"driveli/pkg/platform/sentinel"
	"driveli/pkg/platform/tx"
)

// PostgresStore persists drivers in PostgreSQL. The compare-and-set on
// current_workflow_id is the database-level single-writer guarantee behind
// the per-driver lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, d *Driver) error {
	summary, err := json.Marshal(d.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	query := `
		INSERT INTO drivers (
			id, code, full_name, phone, address, date_of_birth,
			claimed_nin, claimed_license_no, photo_ref, active,
			verification_status, overall_verification_score, verification_summary,
			verification_started_at, verification_completed_at, current_workflow_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			date_of_birth = EXCLUDED.date_of_birth,
			claimed_nin = EXCLUDED.claimed_nin,
			claimed_license_no = EXCLUDED.claimed_license_no,
			photo_ref = EXCLUDED.photo_ref,
			active = EXCLUDED.active
	`
	_, err = tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		d.ID, d.Code, d.FullName, d.Phone, d.Address, d.DateOfBirth,
		d.ClaimedNIN, d.ClaimedLicenseNo, d.PhotoRef, d.Active,
		d.Status, d.OverallScore, summary,
		d.VerificationStartedAt, d.VerificationCompletedAt, workflowID(d.CurrentWorkflowID),
	)
	if err != nil {
		return fmt.Errorf("save driver: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Driver, error) {
	query := `
		SELECT id, code, full_name, phone, address, date_of_birth,
		       claimed_nin, claimed_license_no, photo_ref, active,
		       verification_status, overall_verification_score, verification_summary,
		       verification_started_at, verification_completed_at, current_workflow_id
		FROM drivers
		WHERE id = $1
	`
	var (
		d         Driver
		summary   []byte
		statusRaw string
		wfID      sql.NullString
	)
	err := tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Code, &d.FullName, &d.Phone, &d.Address, &d.DateOfBirth,
		&d.ClaimedNIN, &d.ClaimedLicenseNo, &d.PhotoRef, &d.Active,
		&statusRaw, &d.OverallScore, &summary,
		&d.VerificationStartedAt, &d.VerificationCompletedAt, &wfID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}
	d.Status = Status(statusRaw)
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &d.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
	} else {
		d.Summary = verification.Summary{}
	}
	if wfID.Valid {
		parsed, err := uuid.Parse(wfID.String)
		if err != nil {
			return nil, fmt.Errorf("parse current workflow id: %w", err)
		}
		d.CurrentWorkflowID = &parsed
	}
	return &d, nil
}

func (s *PostgresStore) SetCurrentWorkflow(ctx context.Context, driverID string, id uuid.UUID) error {
	query := `
		UPDATE drivers
		SET current_workflow_id = $2
		WHERE id = $1 AND current_workflow_id IS NULL
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, driverID, id.String())
	if err != nil {
		return fmt.Errorf("set current workflow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set current workflow: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, driverID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("driver %s already has a workflow in progress: %w", driverID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) ClearCurrentWorkflow(ctx context.Context, driverID string, id uuid.UUID) error {
	query := `
		UPDATE drivers
		SET current_workflow_id = NULL
		WHERE id = $1 AND current_workflow_id = $2
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, driverID, id.String())
	if err != nil {
		return fmt.Errorf("clear current workflow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear current workflow: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("workflow %s does not hold driver %s: %w", id, driverID, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresStore) UpdateVerificationState(ctx context.Context, driverID string, state VerificationState) error {
	summary, err := json.Marshal(state.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	query := `
		UPDATE drivers
		SET verification_status = $2,
		    overall_verification_score = $3,
		    verification_summary = $4,
		    verification_started_at = COALESCE($5, verification_started_at),
		    verification_completed_at = COALESCE($6, verification_completed_at)
		WHERE id = $1
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		driverID, state.Status, state.OverallScore, summary, state.StartedAt, state.CompletedAt)
	if err != nil {
		return fmt.Errorf("update verification state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification state: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func workflowID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
