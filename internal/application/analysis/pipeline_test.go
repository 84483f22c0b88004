package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/partner-review/internal/application"
	"github.com/bryanwahyu/partner-review/internal/application/submissions"
	"github.com/bryanwahyu/partner-review/internal/domain/ai"
	"github.com/bryanwahyu/partner-review/internal/domain/controls"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
	"github.com/bryanwahyu/partner-review/internal/infra/memory"
)

type fakeAI struct {
	mu    sync.Mutex
	out   []domain.ControlAssessment
	err   error
	calls int
	got   ai.Request
}

func (f *fakeAI) Analyze(_ context.Context, req ai.Request) ([]domain.ControlAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.ControlAssessment(nil), f.out...), nil
}

var catalog = controls.Catalog{
	{ID: "GENAI-001", Title: "Model evaluation"},
	{ID: "GENAI-002", Title: "Responsible AI"},
	{ID: "INFRA-001", Title: "Accelerators", Category: "Infrastructure and Data: Purpose-built AI Hardware"},
}

type fixture struct {
	svc     *submissions.Service
	pipe    *Pipeline
	ai      *fakeAI
	outputs *memory.AnalysisOutputs
	blobs   *memory.BlobStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	blobs := memory.NewBlobStore()
	outputs := memory.NewAnalysisOutputs()
	svc := &submissions.Service{
		Repo:    memory.NewRecordStore(),
		Blobs:   blobs,
		Outputs: outputs,
		Clock:   application.FixedClock{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		Policy:  domain.DefaultIntakePolicy(),
	}
	fake := &fakeAI{out: []domain.ControlAssessment{
		{ControlID: "GENAI-001", ConfidenceScore: 0.92, PassFail: domain.PassFailPass},
		{ControlID: "GENAI-002", ConfidenceScore: 0.55, PassFail: domain.PassFailFail, ReasonOrNotes: "no policy"},
	}}
	pipe := &Pipeline{Submissions: svc, Blobs: blobs, Outputs: outputs, AI: fake, Catalog: catalog}
	return &fixture{svc: svc, pipe: pipe, ai: fake, outputs: outputs, blobs: blobs}
}

func (f *fixture) create(t *testing.T) *domain.Submission {
	t.Helper()
	sub, err := f.svc.CreateSubmission(context.Background(), domain.Intake{
		PartnerName:        "Acme",
		SalesforceID:       "SF-1",
		ValidationType:     domain.GenAICompetency,
		CompetencyCategory: "Generative AI applications: Horizontal applications",
		SelfAssessment:     &domain.Artifact{Name: "self.xlsx", Data: []byte("evidence")},
	})
	require.NoError(t, err)
	return sub
}

func TestRunAttachesControls(t *testing.T) {
	f := newFixture(t)
	sub := f.create(t)

	got, err := f.pipe.Run(context.Background(), sub.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAIValidation, got.Status)
	require.Len(t, got.Controls, 2)
	assert.Equal(t, "Model evaluation", got.Controls[0].Title)
	assert.Equal(t, domain.PassFailPending, got.Controls[0].PassFail)
	assert.Equal(t, domain.PassFailPass, got.Controls[0].AISuggestion)

	assert.Equal(t, []byte("evidence"), f.ai.got.SelfAssessment)
	assert.Len(t, f.ai.got.Controls, 2, "category-specific controls of other categories are excluded")

	out, err := f.outputs.GetValidationOutput(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRunRequiresPending(t *testing.T) {
	f := newFixture(t)
	sub := f.create(t)
	_, err := f.pipe.Run(context.Background(), sub.ID)
	require.NoError(t, err)

	_, err = f.pipe.Run(context.Background(), sub.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, f.ai.calls)
}

func TestRunAIFailureLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.ai.err = ai.ErrQuotaExceeded
	sub := f.create(t)

	_, err := f.pipe.Run(context.Background(), sub.ID)
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)

	cur, err := f.svc.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, cur.Status)
}

func TestRunEmptyCatalog(t *testing.T) {
	f := newFixture(t)
	f.pipe.Catalog = nil
	sub := f.create(t)

	_, err := f.pipe.Run(context.Background(), sub.ID)
	assert.ErrorIs(t, err, ErrNoControls)
	assert.Zero(t, f.ai.calls)
}

func TestRequestProcessingRunsInBackground(t *testing.T) {
	f := newFixture(t)
	f.svc.Processing = f.pipe
	sub := f.create(t)

	f.pipe.Wait()
	cur, err := f.svc.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAIValidation, cur.Status)
}

func TestRequestProcessingWithoutClient(t *testing.T) {
	f := newFixture(t)
	f.pipe.AI = nil
	err := f.pipe.RequestProcessing(context.Background(), &domain.Submission{ID: "APP-1"})
	assert.Error(t, err)
}

func TestClaimOnce(t *testing.T) {
	p := &Pipeline{}
	assert.True(t, p.claim("APP-1"))
	assert.False(t, p.claim("APP-1"))
	p.release("APP-1")
	assert.True(t, p.claim("APP-1"))
}

func TestRunMissingBlob(t *testing.T) {
	f := newFixture(t)
	sub := f.create(t)
	f.pipe.Blobs = memory.NewBlobStore()

	_, err := f.pipe.Run(context.Background(), sub.ID)
	assert.True(t, errors.Is(err, domain.ErrBlobNotFound))
}
