package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/partner-review/internal/infra/codec"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// OutputRepository stores the latest analysis output per submission
type OutputRepository struct {
	db *sql.DB
}

func NewOutputRepository(db *sql.DB) *OutputRepository {
	return &OutputRepository{db: db}
}

// Save upserts the analysis output
func (r *OutputRepository) Save(ctx context.Context, id domain.SubmissionID, controls []domain.ControlAssessment) error {
	const q = `
INSERT INTO validation_outputs (submission_id, result_json, created_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE result_json=VALUES(result_json), created_at=VALUES(created_at);
`
	b, err := codec.EncodeControls(controls)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, id, string(b), time.Now().UTC())
	return err
}

// GetValidationOutput returns the output, or ErrOutputNotFound
func (r *OutputRepository) GetValidationOutput(ctx context.Context, id domain.SubmissionID) ([]domain.ControlAssessment, error) {
	const q = `SELECT result_json FROM validation_outputs WHERE submission_id=? LIMIT 1;`
	var raw []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOutputNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeControls(raw)
}
