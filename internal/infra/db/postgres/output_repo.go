package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
	"github.com/bryanwahyu/partner-review/internal/infra/codec"
)

type OutputRepository struct{ db *sql.DB }

func NewOutputRepository(db *sql.DB) *OutputRepository { return &OutputRepository{db: db} }

func (r *OutputRepository) Save(ctx context.Context, id domain.SubmissionID, controls []domain.ControlAssessment) error {
	const q = `
INSERT INTO validation_outputs (submission_id, result_json, created_at)
VALUES ($1,$2,$3)
ON CONFLICT (submission_id) DO UPDATE SET
  result_json=EXCLUDED.result_json,
  created_at=EXCLUDED.created_at;`
	b, err := codec.EncodeControls(controls)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, id, string(b), time.Now().UTC())
	return err
}

func (r *OutputRepository) GetValidationOutput(ctx context.Context, id domain.SubmissionID) ([]domain.ControlAssessment, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT result_json FROM validation_outputs WHERE submission_id=$1 LIMIT 1;`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOutputNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeControls(raw)
}
