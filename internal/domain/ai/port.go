package ai

import (
	"context"

	"github.com/bryanwahyu/partner-review/internal/domain/controls"
	"github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// Request is everything the analysis producer needs for one submission.
type Request struct {
	SubmissionID       submissions.SubmissionID
	PartnerName        string
	ValidationType     string
	CompetencyCategory string
	SelfAssessment     []byte
	Controls           []controls.Control
}

// Client produces per-control assessments for a submission.
type Client interface {
	Analyze(ctx context.Context, req Request) ([]submissions.ControlAssessment, error)
}
