package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"driveli/internal/verification"
	"driveli/pkg/platform/sentinel"
	"driveli/pkg/platform/tx"
)

// PostgresVerificationStore persists per-check records. The unique index on
// (driver_id, check_type) makes Save an idempotent upsert for reruns.
type PostgresVerificationStore struct {
	db *sql.DB
}

func NewPostgresVerificationStore(db *sql.DB) *PostgresVerificationStore {
	return &PostgresVerificationStore{db: db}
}

func (s *PostgresVerificationStore) Save(ctx context.Context, v *verification.Verification) error {
	query := `
		INSERT INTO verifications (
			id, driver_id, check_type, status, score,
			expires_at, requires_reverification, last_reverification_check,
			attempts, raw, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (driver_id, check_type) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			expires_at = EXCLUDED.expires_at,
			requires_reverification = EXCLUDED.requires_reverification,
			last_reverification_check = EXCLUDED.last_reverification_check,
			attempts = EXCLUDED.attempts,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		v.ID, v.DriverID, v.Type, v.Status, v.Score,
		v.ExpiresAt, v.RequiresReverification, v.LastReverificationCheck,
		v.Attempts, []byte(v.Raw), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

const verificationColumns = `
	id, driver_id, check_type, status, score,
	expires_at, requires_reverification, last_reverification_check,
	attempts, raw, created_at, updated_at`

func scanVerification(row interface{ Scan(...any) error }) (*verification.Verification, error) {
	var (
		v   verification.Verification
		t   string
		st  string
		raw []byte
	)
	err := row.Scan(
		&v.ID, &v.DriverID, &t, &st, &v.Score,
		&v.ExpiresAt, &v.RequiresReverification, &v.LastReverificationCheck,
		&v.Attempts, &raw, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Type = verification.CheckType(t)
	v.Status = verification.CheckStatus(st)
	v.Raw = json.RawMessage(raw)
	return &v, nil
}

func (s *PostgresVerificationStore) FindByDriverAndType(ctx context.Context, driverID string, t verification.CheckType) (*verification.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE driver_id = $1 AND check_type = $2`
	v, err := scanVerification(tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, driverID, t))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return v, nil
}

func (s *PostgresVerificationStore) ListByDriver(ctx context.Context, driverID string) ([]verification.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE driver_id = $1 ORDER BY created_at`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []verification.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *PostgresVerificationStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]verification.Verification, error) {
	query := `
		SELECT ` + verificationColumns + `
		FROM verifications
		WHERE status IN ('completed', 'approved')
		  AND requires_reverification = FALSE
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired verifications: %w", err)
	}
	defer rows.Close()

	var out []verification.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *PostgresVerificationStore) MarkReverification(ctx context.Context, id uuid.UUID, checkedAt time.Time) error {
	query := `
		UPDATE verifications
		SET requires_reverification = TRUE,
		    last_reverification_check = $2,
		    updated_at = $2
		WHERE id = $1
	`
	res, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query, id, checkedAt)
	if err != nil {
		return fmt.Errorf("mark reverification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark reverification: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresWorkflowStore persists workflow runs with their stages as JSON.
type PostgresWorkflowStore struct {
	db *sql.DB
}

func NewPostgresWorkflowStore(db *sql.DB) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

func (s *PostgresWorkflowStore) Save(ctx context.Context, w *verification.Workflow) error {
	stages, err := json.Marshal(w.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	query := `
		INSERT INTO verification_workflows (
			id, driver_id, status, completion_percentage, overall_score,
			started_at, completed_at, stages
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completion_percentage = EXCLUDED.completion_percentage,
			overall_score = EXCLUDED.overall_score,
			completed_at = EXCLUDED.completed_at,
			stages = EXCLUDED.stages
	`
	_, err = tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		w.ID, w.DriverID, w.Status, w.CompletionPercentage, w.OverallScore,
		w.StartedAt, w.CompletedAt, stages,
	)
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

func scanWorkflow(row interface{ Scan(...any) error }) (*verification.Workflow, error) {
	var (
		w      verification.Workflow
		st     string
		stages []byte
	)
	err := row.Scan(&w.ID, &w.DriverID, &st, &w.CompletionPercentage, &w.OverallScore,
		&w.StartedAt, &w.CompletedAt, &stages)
	if err != nil {
		return nil, err
	}
	w.Status = verification.WorkflowStatus(st)
	if len(stages) > 0 {
		if err := json.Unmarshal(stages, &w.Stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages: %w", err)
		}
	}
	return &w, nil
}

func (s *PostgresWorkflowStore) FindByID(ctx context.Context, id uuid.UUID) (*verification.Workflow, error) {
	query := `
		SELECT id, driver_id, status, completion_percentage, overall_score,
		       started_at, completed_at, stages
		FROM verification_workflows
		WHERE id = $1
	`
	w, err := scanWorkflow(tx.Resolve(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find workflow: %w", err)
	}
	return w, nil
}

func (s *PostgresWorkflowStore) ListByDriver(ctx context.Context, driverID string) ([]verification.Workflow, error) {
	query := `
		SELECT id, driver_id, status, completion_percentage, overall_score,
		       started_at, completed_at, stages
		FROM verification_workflows
		WHERE driver_id = $1
		ORDER BY started_at
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []verification.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// PostgresOCRResultStore persists per-document extraction outcomes.
type PostgresOCRResultStore struct {
	db *sql.DB
}

func NewPostgresOCRResultStore(db *sql.DB) *PostgresOCRResultStore {
	return &PostgresOCRResultStore{db: db}
}

func (s *PostgresOCRResultStore) Save(ctx context.Context, r *verification.DocumentOCRResult) error {
	fields, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	query := `
		INSERT INTO document_ocr_results (
			id, driver_id, workflow_id, document_type, file_ref,
			fields, confidence, match_score, failed, fail_reason, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.DriverID, r.WorkflowID, r.DocumentType, r.FileRef,
		fields, r.Confidence, r.MatchScore, r.Failed, r.FailReason, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save ocr result: %w", err)
	}
	return nil
}

func (s *PostgresOCRResultStore) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]verification.DocumentOCRResult, error) {
	query := `
		SELECT id, driver_id, workflow_id, document_type, file_ref,
		       fields, confidence, match_score, failed, fail_reason, created_at
		FROM document_ocr_results
		WHERE workflow_id = $1
		ORDER BY created_at
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list ocr results: %w", err)
	}
	defer rows.Close()

	var out []verification.DocumentOCRResult
	for rows.Next() {
		var (
			r      verification.DocumentOCRResult
			fields []byte
		)
		err := rows.Scan(&r.ID, &r.DriverID, &r.WorkflowID, &r.DocumentType, &r.FileRef,
			&fields, &r.Confidence, &r.MatchScore, &r.Failed, &r.FailReason, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ocr result: %w", err)
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &r.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PostgresRefereeStore persists referee contact outcomes.
type PostgresRefereeStore struct {
	db *sql.DB
}

func NewPostgresRefereeStore(db *sql.DB) *PostgresRefereeStore {
	return &PostgresRefereeStore{db: db}
}

func (s *PostgresRefereeStore) Save(ctx context.Context, r *verification.RefereeVerification) error {
	query := `
		INSERT INTO referee_verifications (
			id, driver_id, workflow_id, name, phone, relationship,
			verified, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Resolve(ctx, s.db).ExecContext(ctx, query,
		r.ID, r.DriverID, r.WorkflowID, r.Name, r.Phone, r.Relationship,
		r.Verified, r.Notes, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save referee verification: %w", err)
	}
	return nil
}

func (s *PostgresRefereeStore) ListByDriver(ctx context.Context, driverID string) ([]verification.RefereeVerification, error) {
	query := `
		SELECT id, driver_id, workflow_id, name, phone, relationship,
		       verified, notes, created_at
		FROM referee_verifications
		WHERE driver_id = $1
		ORDER BY created_at
	`
	rows, err := tx.Resolve(ctx, s.db).QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list referee verifications: %w", err)
	}
	defer rows.Close()

	var out []verification.RefereeVerification
	for rows.Next() {
		var r verification.RefereeVerification
		err := rows.Scan(&r.ID, &r.DriverID, &r.WorkflowID, &r.Name, &r.Phone, &r.Relationship,
			&r.Verified, &r.Notes, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan referee verification: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
