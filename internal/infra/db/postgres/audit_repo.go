package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bryanwahyu/partner-review/internal/domain/audit"
)

type AuditRepository struct{ db *sql.DB }

func NewAuditRepository(db *sql.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Save(ctx context.Context, e *audit.Entry) error {
	const q = `
INSERT INTO submission_audit
  (id, submission_id, control_id, action, actor, status_before, status_after, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	details := e.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.SubmissionID, e.ControlID, string(e.Action), e.Actor,
		e.StatusBefore, e.StatusAfter, e.Message, details, created,
	)
	return err
}

func (r *AuditRepository) ListBySubmission(ctx context.Context, submissionID string, limit int) ([]*audit.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, submission_id, control_id, action, actor, status_before, status_after,
       COALESCE(message, ''), details_json::text, created_at
FROM submission_audit
WHERE submission_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, submissionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*audit.Entry, 0)
	for rows.Next() {
		var e audit.Entry
		var action string
		if err := rows.Scan(&e.ID, &e.SubmissionID, &e.ControlID, &action, &e.Actor,
			&e.StatusBefore, &e.StatusAfter, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Action = audit.Action(action)
		out = append(out, &e)
	}
	return out, rows.Err()
}
