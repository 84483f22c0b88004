package submissions

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

var errFlaky = errors.New("connection reset")

// flakyStore fails the first getFailures Get calls and the first
// patchConflicts Patch calls.
type flakyStore struct {
	domain.RecordStore
	getFailures    atomic.Int32
	patchConflicts atomic.Int32
	gets           atomic.Int32
	patches        atomic.Int32
}

func (s *flakyStore) Get(ctx context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	s.gets.Add(1)
	if s.getFailures.Add(-1) >= 0 {
		return nil, errFlaky
	}
	return s.RecordStore.Get(ctx, id)
}

func (s *flakyStore) Patch(ctx context.Context, id domain.SubmissionID, v int64, p domain.Patch) error {
	s.patches.Add(1)
	if s.patchConflicts.Add(-1) >= 0 {
		return fmt.Errorf("%w: injected", domain.ErrVersionConflict)
	}
	return s.RecordStore.Patch(ctx, id, v, p)
}

func wrapFlaky(f *fixture) *flakyStore {
	fs := &flakyStore{RecordStore: f.repo}
	f.svc.Repo = fs
	return fs
}

func TestStoreCallRetriesOnce(t *testing.T) {
	f := newFixture()
	id := f.seeded(t, 0.9)
	fs := wrapFlaky(f)
	fs.getFailures.Store(1)

	got, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, int32(2), fs.gets.Load())
}

func TestStoreCallSurfacesSecondFailure(t *testing.T) {
	f := newFixture()
	id := f.seeded(t, 0.9)
	fs := wrapFlaky(f)
	fs.getFailures.Store(2)

	_, err := f.svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrExternalStore)
	assert.ErrorIs(t, err, errFlaky)
	var serr *domain.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "get", serr.Op)
	assert.Equal(t, int32(2), fs.gets.Load())
}

func TestStoreCallDoesNotRetryDomainErrors(t *testing.T) {
	f := newFixture()
	fs := wrapFlaky(f)

	_, err := f.svc.Get(context.Background(), "APP-404")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	assert.NotErrorIs(t, err, domain.ErrExternalStore)
	assert.Equal(t, int32(1), fs.gets.Load())
}

func TestMutateRetriesVersionConflict(t *testing.T) {
	f := newFixture()
	id := f.seeded(t, 0.9, 0.9)
	fs := wrapFlaky(f)
	fs.patchConflicts.Store(2)

	got, err := f.svc.RecordControlDecision(context.Background(), id, "C1", domain.DecisionPass, "", "rev")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHumanValidation, got.Status)
	assert.Equal(t, int32(3), fs.patches.Load())
	assert.Equal(t, int32(3), fs.gets.Load(), "each attempt re-reads")
}

func TestMutateGivesUp(t *testing.T) {
	f := newFixture()
	id := f.seeded(t, 0.9)
	fs := wrapFlaky(f)
	fs.patchConflicts.Store(100)
	f.svc.MaxConflictRetries = 3

	_, err := f.svc.RecordControlDecision(context.Background(), id, "C1", domain.DecisionPass, "", "rev")
	assert.ErrorIs(t, err, domain.ErrExternalStore)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, int32(3), fs.patches.Load())

	stored, err := f.repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAIValidation, stored.Status)
}

func TestStoreCallStopsOnCancelledContext(t *testing.T) {
	f := newFixture()
	id := f.seeded(t, 0.9)
	fs := wrapFlaky(f)
	fs.getFailures.Store(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrExternalStore)
	assert.Equal(t, int32(1), fs.gets.Load())
}

var errAfterCommit = errors.New("connection reset after commit")

// lostAckStore runs onPatch/onPut on the first write, then reports a
// transport error. Later writes go straight through.
type lostAckStore struct {
	domain.RecordStore
	onPatch func(ctx context.Context, id domain.SubmissionID, v int64, p domain.Patch)
	onPut   bool
	patches atomic.Int32
	puts    atomic.Int32
}

func (s *lostAckStore) Patch(ctx context.Context, id domain.SubmissionID, v int64, p domain.Patch) error {
	if s.patches.Add(1) == 1 && s.onPatch != nil {
		s.onPatch(ctx, id, v, p)
		return errAfterCommit
	}
	return s.RecordStore.Patch(ctx, id, v, p)
}

func (s *lostAckStore) Put(ctx context.Context, sub *domain.Submission) error {
	if s.puts.Add(1) == 1 && s.onPut {
		if err := s.RecordStore.Put(ctx, sub); err != nil {
			return err
		}
		return errAfterCommit
	}
	return s.RecordStore.Put(ctx, sub)
}

func commitFirstPatch(f *fixture) *lostAckStore {
	ls := &lostAckStore{RecordStore: f.repo}
	ls.onPatch = func(ctx context.Context, id domain.SubmissionID, v int64, p domain.Patch) {
		_ = f.repo.Patch(ctx, id, v, p)
	}
	f.svc.Repo = ls
	return ls
}

func TestDecisionCommittedBeforeConnectionLoss(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seeded(t, 0.5, 0.9)
	ls := commitFirstPatch(f)

	got, err := f.svc.RecordControlDecision(ctx, id, "C1", domain.DecisionFail, "no evidence", "rev")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, int32(2), ls.patches.Load())

	stored, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Version, "written once")
	assert.Equal(t, domain.PassFailFail, stored.Controls[0].PassFail)
}

func TestAttachCommittedBeforeConnectionLoss(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sub, err := f.svc.CreateSubmission(ctx, intake())
	require.NoError(t, err)
	commitFirstPatch(f)

	got, err := f.svc.AttachAnalysisResults(ctx, sub.ID, controlsWith(0.4, 0.9))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAIValidation, got.Status)

	stored, err := f.repo.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Len(t, stored.Controls, 2)
}

func TestConcurrentWriteDuringConnectionLossIsReapplied(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seeded(t, 0.9, 0.9)

	// another reviewer passes C2 while our first write is lost
	ls := &lostAckStore{RecordStore: f.repo}
	ls.onPatch = func(ctx context.Context, id domain.SubmissionID, v int64, _ domain.Patch) {
		cur, err := f.repo.Get(ctx, id)
		require.NoError(t, err)
		other, err := domain.ApplyDecision(cur, "C2", domain.DecisionPass, "", "other", now)
		require.NoError(t, err)
		require.NoError(t, f.repo.Patch(ctx, id, v, domain.Patch{Status: other.Status, Controls: other.Controls}))
	}
	f.svc.Repo = ls

	got, err := f.svc.RecordControlDecision(ctx, id, "C1", domain.DecisionPass, "", "rev")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, domain.Summary{Total: 2, Passed: 2}, got.Counts())
	assert.Equal(t, "other", got.Controls[1].DecidedBy)
}

func TestCreateCommittedBeforeConnectionLoss(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.Repo = &lostAckStore{RecordStore: f.repo, onPut: true}

	sub, err := f.svc.CreateSubmission(ctx, intake())
	require.NoError(t, err)

	all, err := f.repo.Scan(ctx, domain.ScanQuery{})
	require.NoError(t, err)
	require.Len(t, all, 1, "no duplicate submission")
	assert.Equal(t, sub.ID, all[0].ID)
}

func TestCreateRetryDoesNotAdoptForeignRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	// a record with the next id already exists, with other artifacts
	require.NoError(t, f.repo.Put(ctx, &domain.Submission{ID: "APP-2026-0001", SubmittedAt: now.Add(-time.Hour)}))

	_, err := f.svc.CreateSubmission(ctx, intake())
	assert.ErrorIs(t, err, domain.ErrExternalStore)
}
