// Package memory holds in-process adapters with the same contracts as the
// SQL and MinIO ones. They back the "memory" database driver and the tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// RecordStore keeps submissions in a map guarded by a mutex. The lock is
// held only for the map access itself.
type RecordStore struct {
	mu      sync.RWMutex
	records map[domain.SubmissionID]*domain.Submission
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[domain.SubmissionID]*domain.Submission)}
}

func (r *RecordStore) Get(_ context.Context, id domain.SubmissionID) (*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubmissionNotFound, id)
	}
	return s.Clone(), nil
}

func (r *RecordStore) Scan(_ context.Context, q domain.ScanQuery) ([]*domain.Submission, error) {
	r.mu.RLock()
	all := make([]*domain.Submission, 0, len(r.records))
	for _, s := range r.records {
		if domain.Matches(s, q.Filter) {
			all = append(all, s.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return newer(all[i], all[j].SubmittedAt.UnixNano(), all[j].ID) })

	out := make([]*domain.Submission, 0, q.PageSize)
	for _, s := range all {
		if !q.Cursor.IsZero() && !newer(&domain.Submission{SubmittedAt: q.Cursor.SubmittedAt, ID: q.Cursor.ID}, s.SubmittedAt.UnixNano(), s.ID) {
			continue
		}
		out = append(out, s)
		if q.PageSize > 0 && len(out) >= q.PageSize {
			break
		}
	}
	return out, nil
}

// newer reports whether a sorts before (submittedAt, id) in DESC order.
func newer(a *domain.Submission, submittedAt int64, id domain.SubmissionID) bool {
	an := a.SubmittedAt.UnixNano()
	if an != submittedAt {
		return an > submittedAt
	}
	return a.ID > id
}

func (r *RecordStore) Put(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[s.ID]; exists {
		return fmt.Errorf("submission %s already exists", s.ID)
	}
	c := s.Clone()
	c.Version = 1
	r.records[s.ID] = c
	return nil
}

func (r *RecordStore) Patch(_ context.Context, id domain.SubmissionID, expectedVersion int64, p domain.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSubmissionNotFound, id)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("%w: %s at version %d, expected %d", domain.ErrVersionConflict, id, cur.Version, expectedVersion)
	}
	next := cur.Clone()
	if p.Status != "" {
		next.Status = p.Status
	}
	if p.Controls != nil {
		next.Controls = (&domain.Submission{Controls: p.Controls}).Clone().Controls
	}
	if !p.UpdatedAt.IsZero() {
		next.UpdatedAt = p.UpdatedAt
	}
	next.Version = cur.Version + 1
	r.records[id] = next
	return nil
}
