package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/partner-review/internal/infra/codec"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, partner_name, salesforce_id, validation_type, competency_category,
       status, submitted_at, updated_at, artifacts_json, controls_json, version`

// Put insert a new submission at version 1
func (r *SubmissionRepository) Put(ctx context.Context, s *domain.Submission) error {
	const q = `
INSERT INTO partner_submissions
(id, partner_name, salesforce_id, validation_type, competency_category,
 status, submitted_at, updated_at, artifacts_json, controls_json, version)
VALUES (?,?,?,?,?,?,?,?,?,?,1);
`
	arts, err := codec.EncodeArtifacts(s.Artifacts)
	if err != nil {
		return err
	}
	controls, err := codec.EncodeControls(s.Controls)
	if err != nil {
		return err
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = s.SubmittedAt
	}
	_, err = r.db.ExecContext(ctx, q,
		s.ID, s.PartnerName, s.SalesforceID, s.ValidationType, s.CompetencyCategory,
		string(s.Status), s.SubmittedAt, updated, string(arts), string(controls),
	)
	return err
}

// Get by ID
func (r *SubmissionRepository) Get(ctx context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM partner_submissions WHERE id=? LIMIT 1;`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubmissionNotFound, id)
	}
	return s, err
}

// Scan cursor-based page, newest first, optional free-text filter
func (r *SubmissionRepository) Scan(ctx context.Context, in domain.ScanQuery) ([]*domain.Submission, error) {
	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	var where []string
	var args []any

	if f := strings.TrimSpace(in.Filter); f != "" {
		where = append(where, `(LOWER(id) LIKE ? OR LOWER(partner_name) LIKE ? OR LOWER(validation_type) LIKE ? OR LOWER(competency_category) LIKE ?)`)
		like := likeArg(f)
		args = append(args, like, like, like, like)
	}
	if !in.Cursor.IsZero() {
		where = append(where, `(submitted_at < ? OR (submitted_at = ? AND id < ?))`)
		args = append(args, in.Cursor.SubmittedAt, in.Cursor.SubmittedAt, in.Cursor.ID)
	}

	q := `SELECT ` + submissionColumns + ` FROM partner_submissions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY submitted_at DESC, id DESC LIMIT ?;"
	args = append(args, pageSize)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Patch conditional update keyed on version (optimistic concurrency)
func (r *SubmissionRepository) Patch(ctx context.Context, id domain.SubmissionID, expectedVersion int64, p domain.Patch) error {
	set := []string{"version = version + 1"}
	var args []any
	if p.Status != "" {
		set = append(set, "status = ?")
		args = append(args, string(p.Status))
	}
	if p.Controls != nil {
		controls, err := codec.EncodeControls(p.Controls)
		if err != nil {
			return err
		}
		set = append(set, "controls_json = ?")
		args = append(args, string(controls))
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	set = append(set, "updated_at = ?")
	args = append(args, updated)

	q := "UPDATE partner_submissions SET " + strings.Join(set, ", ") + " WHERE id = ? AND version = ?;"
	args = append(args, id, expectedVersion)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var current int64
	err = r.db.QueryRowContext(ctx, `SELECT version FROM partner_submissions WHERE id=?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrSubmissionNotFound, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s at version %d, expected %d", domain.ErrVersionConflict, id, current, expectedVersion)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var s domain.Submission
	var status string
	var arts, controls []byte
	if err := row.Scan(
		&s.ID, &s.PartnerName, &s.SalesforceID, &s.ValidationType, &s.CompetencyCategory,
		&status, &s.SubmittedAt, &s.UpdatedAt, &arts, &controls, &s.Version,
	); err != nil {
		return nil, err
	}
	var err error
	if s.Status, err = codec.ParseStatus(status); err != nil {
		return nil, err
	}
	if s.Artifacts, err = codec.DecodeArtifacts(arts); err != nil {
		return nil, err
	}
	if s.Controls, err = codec.DecodeControls(controls); err != nil {
		return nil, err
	}
	return &s, nil
}
