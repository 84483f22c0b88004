package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bryanwahyu/partner-review/internal/application/submissions"
	"github.com/bryanwahyu/partner-review/internal/domain/ai"
	"github.com/bryanwahyu/partner-review/internal/domain/controls"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

const defaultTimeout = 5 * time.Minute

// ErrNoControls is returned when the catalog has nothing to assess for a category.
var ErrNoControls = errors.New("no catalog controls for category")

// Pipeline runs the AI analysis of one submission and hands the result to
// the submission service. It also serves as the in-process ProcessingRequester.
type Pipeline struct {
	Submissions *submissions.Service
	Blobs       domain.BlobStore
	Outputs     domain.AnalysisOutputs
	AI          ai.Client
	Catalog     controls.Catalog
	Timeout     time.Duration

	mu       sync.Mutex
	inflight map[domain.SubmissionID]bool
	wg       sync.WaitGroup
}

// Run analyses a Pending submission synchronously.
func (p *Pipeline) Run(ctx context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	sub, err := p.Submissions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: submission %s is %q, analysis needs %q",
			domain.ErrInvalidTransition, id, sub.Status, domain.StatusPending)
	}

	list := p.Catalog.ForCategory(sub.CompetencyCategory)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoControls, sub.CompetencyCategory)
	}

	doc, err := p.Blobs.Get(ctx, sub.Artifacts.SelfAssessmentKey)
	if err != nil {
		return nil, domain.NewStoreError("blob get", err)
	}

	start := time.Now()
	out, err := p.AI.Analyze(ctx, ai.Request{
		SubmissionID:       sub.ID,
		PartnerName:        sub.PartnerName,
		ValidationType:     sub.ValidationType,
		CompetencyCategory: sub.CompetencyCategory,
		SelfAssessment:     doc,
		Controls:           list,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", id, err)
	}
	slog.Info("analysis produced", "submission_id", id, "controls", len(out), "duration_ms", time.Since(start).Milliseconds())

	fillTitles(out, p.Catalog)
	if p.Outputs != nil {
		if err := p.Outputs.Save(ctx, id, out); err != nil {
			return nil, domain.NewStoreError("save validation output", err)
		}
	}
	return p.Submissions.AttachAnalysisResults(ctx, id, out)
}

// RequestProcessing starts Run in the background. A submission already being
// analysed is not started twice.
func (p *Pipeline) RequestProcessing(_ context.Context, sub *domain.Submission) error {
	if p.AI == nil {
		return errors.New("analysis client not configured")
	}
	if !p.claim(sub.ID) {
		slog.Info("analysis already running", "submission_id", sub.ID)
		return nil
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p.wg.Add(1)
	go func(id domain.SubmissionID) {
		defer p.wg.Done()
		defer p.release(id)

		// request context ends with the HTTP call; analysis outlives it
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := p.Run(ctx, id); err != nil {
			slog.Error("analysis failed", "submission_id", id, "error", err)
			return
		}
	}(sub.ID)
	return nil
}

// Wait blocks until background runs finish.
func (p *Pipeline) Wait() { p.wg.Wait() }

func (p *Pipeline) claim(id domain.SubmissionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight == nil {
		p.inflight = make(map[domain.SubmissionID]bool)
	}
	if p.inflight[id] {
		return false
	}
	p.inflight[id] = true
	return true
}

func (p *Pipeline) release(id domain.SubmissionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, id)
}

// fillTitles copies catalog titles onto assessments the model left untitled.
func fillTitles(out []domain.ControlAssessment, cat controls.Catalog) {
	for i := range out {
		if out[i].Title != "" {
			continue
		}
		if c, ok := cat.Find(out[i].ControlID); ok {
			out[i].Title = c.Title
		}
	}
}
