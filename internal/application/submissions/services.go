package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/partner-review/internal/application"
	"github.com/bryanwahyu/partner-review/internal/domain/audit"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// Service implements the submission use-cases.
// It is safe for concurrent use; consistency comes from the record store's
// conditional patch, not from in-process locks.
type Service struct {
	Repo       domain.RecordStore
	Blobs      domain.BlobStore
	Outputs    domain.AnalysisOutputs
	Settings   domain.SettingsProvider
	Processing domain.ProcessingRequester // optional
	Audit      audit.Repository           // optional
	Clock      application.Clock
	Policy     domain.IntakePolicy

	MaxConflictRetries int
	PageSize           int
	// NewID overrides id generation in tests.
	NewID func(now time.Time) domain.SubmissionID
}

//
// ==== USE CASES ====
//

// CreateSubmission validates the intake, uploads the evidence under the new
// submission id, and persists the record as Pending.
func (s *Service) CreateSubmission(ctx context.Context, in domain.Intake) (*domain.Submission, error) {
	if err := s.Policy.Validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	id := s.newID(now)
	stamp := now.UnixMilli()

	arts := domain.Artifacts{
		SelfAssessmentKey: domain.SelfAssessmentKey(id, stamp, in.SelfAssessment.Name),
	}
	if err := s.upload(ctx, arts.SelfAssessmentKey, *in.SelfAssessment); err != nil {
		return nil, err
	}
	for _, f := range in.AdditionalFiles {
		key := domain.AdditionalDocKey(id, stamp, f.Name)
		if err := s.upload(ctx, key, f); err != nil {
			return nil, err
		}
		arts.AdditionalKeys = append(arts.AdditionalKeys, key)
	}

	sub := &domain.Submission{
		ID:                 id,
		PartnerName:        strings.TrimSpace(in.PartnerName),
		SalesforceID:       strings.TrimSpace(in.SalesforceID),
		ValidationType:     strings.TrimSpace(in.ValidationType),
		CompetencyCategory: strings.TrimSpace(in.CompetencyCategory),
		SubmittedAt:        now,
		UpdatedAt:          now,
		Status:             domain.StatusPending,
		Artifacts:          arts,
		Controls:           []domain.ControlAssessment{},
		Version:            1,
	}
	if err := s.insert(ctx, sub); err != nil {
		slog.Error("persist submission failed", "submission_id", id, "error", err)
		return nil, err
	}
	slog.Info("submission created", "submission_id", id, "partner", sub.PartnerName, "files", 1+len(arts.AdditionalKeys))
	s.record(ctx, audit.Entry{SubmissionID: string(id), Action: audit.ActionCreated, StatusAfter: string(sub.Status)})

	s.requestProcessing(ctx, sub)
	return sub, nil
}

// RequestProcessing re-issues the analysis request for a submission still Pending.
func (s *Service) RequestProcessing(ctx context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	sub, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: processing can only be requested for %q, submission %s is %q",
			domain.ErrInvalidTransition, domain.StatusPending, id, sub.Status)
	}
	if s.Processing == nil {
		return nil, fmt.Errorf("%w: no analysis processor configured", domain.ErrInvalidTransition)
	}
	if err := s.Processing.RequestProcessing(ctx, sub); err != nil {
		s.record(ctx, audit.Entry{SubmissionID: string(id), Action: audit.ActionProcessFailed, Message: err.Error()})
		return nil, domain.NewStoreError("request processing", err)
	}
	s.record(ctx, audit.Entry{SubmissionID: string(id), Action: audit.ActionProcessRequested})
	return sub, nil
}

// AttachAnalysisResults is the inbound hook for the analysis producer:
// Pending -> AI Validation.
func (s *Service) AttachAnalysisResults(ctx context.Context, id domain.SubmissionID, controls []domain.ControlAssessment) (*domain.Submission, error) {
	prev, next, err := s.mutate(ctx, id, "attach analysis", func(cur *domain.Submission) (*domain.Submission, error) {
		return domain.AttachControls(cur, controls, s.now())
	})
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTransition, err)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("analysis attached", "submission_id", id, "controls", len(next.Controls))
	s.record(ctx, audit.Entry{
		SubmissionID: string(id),
		Action:       audit.ActionAnalysisAttached,
		StatusBefore: string(prev.Status),
		StatusAfter:  string(next.Status),
		DetailsJSON:  detailsJSON(map[string]any{"controls": len(next.Controls)}),
	})
	return next, nil
}

// RecordControlDecision is the only path that changes a control's pass/fail.
// The aggregate status is re-derived in the same conditional write.
func (s *Service) RecordControlDecision(ctx context.Context, id domain.SubmissionID, controlID string, d domain.Decision, notes, reviewer string) (*domain.Submission, error) {
	prev, next, err := s.mutate(ctx, id, "record decision", func(cur *domain.Submission) (*domain.Submission, error) {
		return domain.ApplyDecision(cur, controlID, d, notes, reviewer, s.now())
	})
	if err != nil {
		return nil, err
	}
	slog.Info("control decision recorded",
		"submission_id", id, "control_id", controlID, "decision", d, "reviewer", reviewer, "status", next.Status)
	s.record(ctx, audit.Entry{
		SubmissionID: string(id),
		ControlID:    controlID,
		Action:       audit.ActionDecision,
		Actor:        reviewer,
		StatusBefore: string(prev.Status),
		StatusAfter:  string(next.Status),
		Message:      notes,
		DetailsJSON:  detailsJSON(map[string]any{"decision": d}),
	})
	s.finalized(ctx, prev, next, reviewer)
	return next, nil
}

// RejectSubmission closes the submission as Rejected, pending controls included.
func (s *Service) RejectSubmission(ctx context.Context, id domain.SubmissionID, actor string) (*domain.Submission, error) {
	prev, next, err := s.mutate(ctx, id, "reject", func(cur *domain.Submission) (*domain.Submission, error) {
		return domain.Reject(cur, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.finalized(ctx, prev, next, actor)
	return next, nil
}

// ApproveSubmission closes the submission as Approved; fails with
// ErrPendingControls while any control is pending.
func (s *Service) ApproveSubmission(ctx context.Context, id domain.SubmissionID, actor string) (*domain.Submission, error) {
	prev, next, err := s.mutate(ctx, id, "approve", func(cur *domain.Submission) (*domain.Submission, error) {
		return domain.Approve(cur, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.finalized(ctx, prev, next, actor)
	return next, nil
}

// Get returns one submission by id.
func (s *Service) Get(ctx context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	return s.get(ctx, id)
}

// helper

func (s *Service) upload(ctx context.Context, key string, a domain.Artifact) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err := storeCall(ctx, "blob put", func(ctx context.Context) error {
		return s.Blobs.Put(ctx, key, a.Data, contentType)
	})
	if err != nil {
		slog.Error("artifact upload failed", "key", key, "error", err)
	}
	return err
}

func (s *Service) requestProcessing(ctx context.Context, sub *domain.Submission) {
	if s.Processing == nil {
		return
	}
	if err := s.Processing.RequestProcessing(ctx, sub); err != nil {
		// submission stays Pending; POST .../process re-requests it
		slog.Error("processing request failed", "submission_id", sub.ID, "error", err)
		s.record(ctx, audit.Entry{SubmissionID: string(sub.ID), Action: audit.ActionProcessFailed, Message: err.Error()})
		return
	}
	s.record(ctx, audit.Entry{SubmissionID: string(sub.ID), Action: audit.ActionProcessRequested})
}

func (s *Service) finalized(ctx context.Context, prev, next *domain.Submission, actor string) {
	if prev.Status == next.Status || !next.Status.Terminal() {
		return
	}
	action := audit.ActionApproved
	if next.Status == domain.StatusRejected {
		action = audit.ActionRejected
	}
	sum := next.Counts()
	slog.Info("submission finalized", "submission_id", next.ID, "status", next.Status,
		"passed", sum.Passed, "failed", sum.Failed, "pending", sum.Pending)
	s.record(ctx, audit.Entry{
		SubmissionID: string(next.ID),
		Action:       action,
		Actor:        actor,
		StatusBefore: string(prev.Status),
		StatusAfter:  string(next.Status),
		DetailsJSON:  detailsJSON(sum),
	})
}

// record writes an audit entry. The submission write already committed, so a
// failure here is logged and not returned.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.Audit == nil {
		return
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	if err := s.Audit.Save(ctx, &e); err != nil {
		slog.Error("audit write failed", "submission_id", e.SubmissionID, "action", e.Action, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) newID(now time.Time) domain.SubmissionID {
	if s.NewID != nil {
		return s.NewID(now)
	}
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return domain.SubmissionID(fmt.Sprintf("APP-%d-%s", now.Year(), short))
}

func detailsJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
