package memory

import (
	"context"
	"sync"

	"github.com/bryanwahyu/partner-review/internal/domain/audit"
)

// AuditLog is an append-only in-process audit repository.
type AuditLog struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

func NewAuditLog() *AuditLog { return &AuditLog{} }

func (a *AuditLog) Save(_ context.Context, e *audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := *e
	a.entries = append(a.entries, &c)
	return nil
}

func (a *AuditLog) ListBySubmission(_ context.Context, submissionID string, limit int) ([]*audit.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*audit.Entry, 0)
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if a.entries[i].SubmissionID == submissionID {
			c := *a.entries[i]
			out = append(out, &c)
		}
	}
	return out, nil
}
