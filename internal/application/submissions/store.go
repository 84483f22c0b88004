package submissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// DefaultMaxConflictRetries bounds the optimistic read-modify-write loop.
const DefaultMaxConflictRetries = 5

// storeCall runs fn and retries it once, immediately, when it fails with
// something other than a domain condition. The second failure is surfaced as
// an ExternalStoreError.
func storeCall(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	if ctx.Err() != nil {
		return domain.NewStoreError(op, err)
	}
	slog.Warn("store call failed, retrying once", "op", op, "error", err)
	err = fn(ctx)
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	return domain.NewStoreError(op, err)
}

// storeValue is storeCall for calls that return a value.
func storeValue[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := storeCall(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// transition computes the next record from the current one.
type transition func(cur *domain.Submission) (*domain.Submission, error)

// mutate applies step with read-modify-write atomicity: the patch is
// conditional on the version that was read, and a lost race re-reads and
// re-applies step. No lock is held across store calls.
func (s *Service) mutate(ctx context.Context, id domain.SubmissionID, op string, step transition) (prev, next *domain.Submission, err error) {
	attempts := s.MaxConflictRetries
	if attempts <= 0 {
		attempts = DefaultMaxConflictRetries
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		cur, err := s.get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		next, err := step(cur)
		if err != nil {
			return nil, nil, err
		}

		err = s.patch(ctx, op, cur, next)
		if errors.Is(err, domain.ErrVersionConflict) {
			slog.Warn("concurrent update, re-reading submission",
				"op", op, "submission_id", id, "attempt", attempt, "version", cur.Version)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		next.Version = cur.Version + 1
		return cur, next, nil
	}
	return nil, nil, domain.NewStoreError(op, fmt.Errorf("%w: gave up after %d attempts", domain.ErrVersionConflict, attempts))
}

// patch writes next conditionally on cur.Version. When the first attempt
// fails in transit it may still have committed, so a conflict on the retry
// is checked against the stored record before it is reported.
func (s *Service) patch(ctx context.Context, op string, cur, next *domain.Submission) error {
	p := domain.Patch{Status: next.Status, Controls: next.Controls, UpdatedAt: next.UpdatedAt}
	calls := 0
	return storeCall(ctx, op, func(ctx context.Context) error {
		calls++
		err := s.Repo.Patch(ctx, cur.ID, cur.Version, p)
		if calls > 1 && errors.Is(err, domain.ErrVersionConflict) && s.landed(ctx, cur.ID, cur.Version+1, next) {
			slog.Warn("patch committed before the connection failed", "op", op, "submission_id", cur.ID, "version", cur.Version+1)
			return nil
		}
		return err
	})
}

// landed reports whether the stored record is exactly want at version.
func (s *Service) landed(ctx context.Context, id domain.SubmissionID, version int64, want *domain.Submission) bool {
	stored, err := s.Repo.Get(ctx, id)
	if err != nil {
		return false
	}
	return stored.Version == version && stored.SameState(want)
}

// insert is Put with the same in-transit check: a retried insert that finds
// its own record already stored succeeded on the first attempt.
func (s *Service) insert(ctx context.Context, sub *domain.Submission) error {
	calls := 0
	return storeCall(ctx, "put", func(ctx context.Context) error {
		calls++
		err := s.Repo.Put(ctx, sub)
		if err == nil || calls == 1 {
			return err
		}
		stored, gerr := s.Repo.Get(ctx, sub.ID)
		if gerr == nil && stored.Version == 1 &&
			stored.Artifacts.SelfAssessmentKey == sub.Artifacts.SelfAssessmentKey &&
			stored.SubmittedAt.Equal(sub.SubmittedAt) {
			slog.Warn("insert committed before the connection failed", "submission_id", sub.ID)
			return nil
		}
		return err
	})
}

func (s *Service) get(ctx context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	return storeValue(ctx, "get", func(ctx context.Context) (*domain.Submission, error) {
		return s.Repo.Get(ctx, id)
	})
}
