package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS partner_submissions (
		id                  TEXT        PRIMARY KEY,
		partner_name        TEXT        NOT NULL,
		salesforce_id       TEXT        NOT NULL,
		validation_type     TEXT        NOT NULL,
		competency_category TEXT        NOT NULL DEFAULT '',
		status              TEXT        NOT NULL,
		submitted_at        TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		artifacts_json      JSONB       NOT NULL,
		controls_json       JSONB       NOT NULL,
		version             BIGINT      NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_submitted ON partner_submissions (submitted_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS validation_outputs (
		submission_id TEXT        PRIMARY KEY,
		result_json   JSONB       NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submission_audit (
		id            TEXT        PRIMARY KEY,
		submission_id TEXT        NOT NULL,
		control_id    TEXT        NOT NULL DEFAULT '',
		action        TEXT        NOT NULL,
		actor         TEXT        NOT NULL DEFAULT '',
		status_before TEXT        NOT NULL DEFAULT '',
		status_after  TEXT        NOT NULL DEFAULT '',
		message       TEXT,
		details_json  JSONB       NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_submission ON submission_audit (submission_id, created_at DESC)`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("postgres migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
