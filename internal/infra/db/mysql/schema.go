package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS partner_submissions (
		id                  VARCHAR(64)  NOT NULL PRIMARY KEY,
		partner_name        VARCHAR(255) NOT NULL,
		salesforce_id       VARCHAR(64)  NOT NULL,
		validation_type     VARCHAR(128) NOT NULL,
		competency_category VARCHAR(255) NOT NULL DEFAULT '',
		status              VARCHAR(32)  NOT NULL,
		submitted_at        DATETIME(6)  NOT NULL,
		updated_at          DATETIME(6)  NOT NULL,
		artifacts_json      JSON         NOT NULL,
		controls_json       JSON         NOT NULL,
		version             BIGINT       NOT NULL DEFAULT 1,
		INDEX idx_submissions_submitted (submitted_at, id)
	)`,
	`CREATE TABLE IF NOT EXISTS validation_outputs (
		submission_id VARCHAR(64) NOT NULL PRIMARY KEY,
		result_json   JSON        NOT NULL,
		created_at    DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submission_audit (
		id            VARCHAR(64) NOT NULL PRIMARY KEY,
		submission_id VARCHAR(64) NOT NULL,
		control_id    VARCHAR(64) NOT NULL DEFAULT '',
		action        VARCHAR(32) NOT NULL,
		actor         VARCHAR(255) NOT NULL DEFAULT '',
		status_before VARCHAR(32) NOT NULL DEFAULT '',
		status_after  VARCHAR(32) NOT NULL DEFAULT '',
		message       TEXT,
		details_json  JSON        NOT NULL,
		created_at    DATETIME(6) NOT NULL,
		INDEX idx_audit_submission (submission_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		setting_key   VARCHAR(128) NOT NULL PRIMARY KEY,
		setting_value VARCHAR(255) NOT NULL,
		updated_at    DATETIME(6)  NOT NULL
	)`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("mysql migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
