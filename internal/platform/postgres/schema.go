package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the full DDL for the verification subsystem. Statements are
// idempotent so EnsureSchema can run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS drivers (
	id                          TEXT PRIMARY KEY,
	code                        TEXT NOT NULL DEFAULT '',
	full_name                   TEXT NOT NULL,
	phone                       TEXT NOT NULL DEFAULT '',
	address                     TEXT NOT NULL DEFAULT '',
	date_of_birth               TEXT NOT NULL DEFAULT '',
	claimed_nin                 TEXT NOT NULL DEFAULT '',
	claimed_license_no          TEXT NOT NULL DEFAULT '',
	photo_ref                   TEXT NOT NULL DEFAULT '',
	active                      BOOLEAN NOT NULL DEFAULT TRUE,
	verification_status         TEXT NOT NULL DEFAULT 'unverified',
	overall_verification_score  INTEGER NOT NULL DEFAULT 0,
	verification_summary        JSONB NOT NULL DEFAULT '{}',
	verification_started_at     TIMESTAMPTZ,
	verification_completed_at   TIMESTAMPTZ,
	current_workflow_id         UUID
);

CREATE TABLE IF NOT EXISTS verifications (
	id                          UUID PRIMARY KEY,
	driver_id                   TEXT NOT NULL REFERENCES drivers(id),
	check_type                  TEXT NOT NULL,
	status                      TEXT NOT NULL,
	score                       DOUBLE PRECISION,
	expires_at                  TIMESTAMPTZ,
	requires_reverification     BOOLEAN NOT NULL DEFAULT FALSE,
	last_reverification_check   TIMESTAMPTZ,
	attempts                    INTEGER NOT NULL DEFAULT 0,
	raw                         JSONB,
	created_at                  TIMESTAMPTZ NOT NULL,
	updated_at                  TIMESTAMPTZ NOT NULL,
	UNIQUE (driver_id, check_type)
);

CREATE INDEX IF NOT EXISTS idx_verifications_expiry
	ON verifications (expires_at)
	WHERE requires_reverification = FALSE AND expires_at IS NOT NULL;

CREATE TABLE IF NOT EXISTS verification_workflows (
	id                      UUID PRIMARY KEY,
	driver_id               TEXT NOT NULL REFERENCES drivers(id),
	status                  TEXT NOT NULL,
	completion_percentage   INTEGER NOT NULL DEFAULT 0,
	overall_score           INTEGER NOT NULL DEFAULT 0,
	started_at              TIMESTAMPTZ NOT NULL,
	completed_at            TIMESTAMPTZ,
	stages                  JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_workflows_driver
	ON verification_workflows (driver_id, started_at);

CREATE TABLE IF NOT EXISTS document_ocr_results (
	id              UUID PRIMARY KEY,
	driver_id       TEXT NOT NULL REFERENCES drivers(id),
	workflow_id     UUID NOT NULL,
	document_type   TEXT NOT NULL,
	file_ref        TEXT NOT NULL,
	fields          JSONB,
	confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
	match_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	failed          BOOLEAN NOT NULL DEFAULT FALSE,
	fail_reason     TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS referee_verifications (
	id              UUID PRIMARY KEY,
	driver_id       TEXT NOT NULL REFERENCES drivers(id),
	workflow_id     UUID NOT NULL,
	name            TEXT NOT NULL,
	phone           TEXT NOT NULL,
	relationship    TEXT NOT NULL DEFAULT '',
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS api_verification_logs (
	id              UUID PRIMARY KEY,
	driver_id       TEXT NOT NULL,
	provider        TEXT NOT NULL,
	fingerprint     TEXT NOT NULL,
	outcome         TEXT NOT NULL,
	latency_ms      BIGINT NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_api_logs_driver
	ON api_verification_logs (driver_id, created_at);
`

// EnsureSchema applies the DDL. Safe to call on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
