package submissions

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/bryanwahyu/partner-review/internal/domain/audit"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

const defaultPageSize = 50

// ValidationView is a submission enriched for the reviewer screen.
type ValidationView struct {
	*domain.Submission
	AverageConfidenceScore      float64                    `json:"average_confidence_score"`
	ControlsNeedingVerification []domain.ControlAssessment `json:"controls_needing_verification"`
	ConfidenceThreshold         float64                    `json:"confidence_threshold"`
	AnalysisOutput              []domain.ControlAssessment `json:"analysis_output,omitempty"`
}

// Report is the data behind the exported validation report.
type Report struct {
	SubmissionID domain.SubmissionID        `json:"submission_id"`
	PartnerName  string                     `json:"partner_name"`
	Status       domain.Status              `json:"status"`
	Summary      domain.Summary             `json:"summary"`
	Controls     []domain.ControlAssessment `json:"controls"`
}

// ListSubmissions returns a lazy sequence over all submissions matching
// filter, newest first. Each range over it restarts from the first page.
func (s *Service) ListSubmissions(ctx context.Context, filter string) iter.Seq2[*domain.Submission, error] {
	size := s.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return func(yield func(*domain.Submission, error) bool) {
		q := domain.ScanQuery{Filter: filter, PageSize: size}
		for {
			page, err := storeValue(ctx, "scan", func(ctx context.Context) ([]*domain.Submission, error) {
				return s.Repo.Scan(ctx, q)
			})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, sub := range page {
				if !domain.Matches(sub, filter) {
					continue
				}
				if !yield(sub, nil) {
					return
				}
			}
			if len(page) < size {
				return
			}
			last := page[len(page)-1]
			q.Cursor = domain.Cursor{SubmittedAt: last.SubmittedAt, ID: last.ID}
		}
	}
}

// ListAll collects up to limit matching submissions (limit <= 0 means no limit).
func (s *Service) ListAll(ctx context.Context, filter string, limit int) ([]*domain.Submission, error) {
	out := make([]*domain.Submission, 0)
	for sub, err := range s.ListSubmissions(ctx, filter) {
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetSubmissionWithValidationView fetches a record and, while it is under AI
// or human validation, enriches it with the analysis output, the average
// confidence and the controls still needing a human. Other statuses return
// an empty enrichment without calling the analysis store.
func (s *Service) GetSubmissionWithValidationView(ctx context.Context, id domain.SubmissionID) (*ValidationView, error) {
	sub, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ValidationView{
		Submission:                  sub,
		ControlsNeedingVerification: []domain.ControlAssessment{},
	}
	if !sub.Status.UnderValidation() {
		return view, nil
	}

	var output []domain.ControlAssessment
	if s.Outputs != nil {
		output, err = storeValue(ctx, "get validation output", func(ctx context.Context) ([]domain.ControlAssessment, error) {
			return s.Outputs.GetValidationOutput(ctx, id)
		})
		if err != nil && !errors.Is(err, domain.ErrOutputNotFound) {
			return nil, err
		}
	}

	controls := sub.Controls
	if len(controls) == 0 {
		controls = output
	}
	threshold := s.threshold(ctx)
	needing, err := domain.NeedingVerification(controls, threshold)
	if err != nil {
		return nil, err
	}

	view.AnalysisOutput = output
	view.ConfidenceThreshold = threshold
	view.AverageConfidenceScore = domain.AverageConfidence(controls)
	view.ControlsNeedingVerification = needing
	return view, nil
}

// Report summarises control outcomes for one submission.
func (s *Service) Report(ctx context.Context, id domain.SubmissionID) (*Report, error) {
	sub, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Report{
		SubmissionID: sub.ID,
		PartnerName:  sub.PartnerName,
		Status:       sub.Status,
		Summary:      sub.Counts(),
		Controls:     sub.Controls,
	}, nil
}

// StatusCounts tallies submissions per status.
func (s *Service) StatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	out := map[domain.Status]int{}
	for sub, err := range s.ListSubmissions(ctx, "") {
		if err != nil {
			return nil, err
		}
		out[sub.Status]++
	}
	return out, nil
}

// History lists the audit trail of one submission, newest first.
func (s *Service) History(ctx context.Context, id domain.SubmissionID, limit int) ([]*audit.Entry, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	if s.Audit == nil {
		return []*audit.Entry{}, nil
	}
	return storeValue(ctx, "list audit", func(ctx context.Context) ([]*audit.Entry, error) {
		return s.Audit.ListBySubmission(ctx, string(id), limit)
	})
}

// threshold resolves the gate threshold, falling back to the default when
// settings are unset, unreadable or out of range.
func (s *Service) threshold(ctx context.Context) float64 {
	if s.Settings == nil {
		return domain.DefaultConfidenceThreshold
	}
	t, err := s.Settings.ConfidenceThreshold(ctx)
	if err != nil {
		slog.Warn("confidence threshold unavailable, using default", "default", domain.DefaultConfidenceThreshold, "error", err)
		return domain.DefaultConfidenceThreshold
	}
	if !domain.ValidThreshold(t) {
		slog.Warn("confidence threshold out of range, using default", "value", t)
		return domain.DefaultConfidenceThreshold
	}
	return t
}
