package submissions

import (
	"context"
	"time"
)

// ScanQuery selects a page of submissions ordered by submitted_at DESC, id DESC.
// A zero Cursor starts from the newest record.
type ScanQuery struct {
	Filter   string
	Cursor   Cursor
	PageSize int
}

// Cursor points at the last record of the previous page.
type Cursor struct {
	SubmittedAt time.Time
	ID          SubmissionID
}

// IsZero reports whether the cursor is the start of the sequence.
func (c Cursor) IsZero() bool { return c.ID == "" }

// RecordStore port (persistence of submission records)
type RecordStore interface {
	Get(ctx context.Context, id SubmissionID) (*Submission, error)
	Scan(ctx context.Context, q ScanQuery) ([]*Submission, error)
	// Put inserts a new record with version 1.
	Put(ctx context.Context, s *Submission) error
	// Patch applies p only if the stored version equals expectedVersion and
	// bumps the version. Otherwise it returns ErrVersionConflict.
	Patch(ctx context.Context, id SubmissionID, expectedVersion int64, p Patch) error
}

// BlobStore port (evidence files, keys namespaced by submission id)
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// AnalysisOutputs port (what the analysis producer emitted per submission)
type AnalysisOutputs interface {
	Save(ctx context.Context, id SubmissionID, controls []ControlAssessment) error
	GetValidationOutput(ctx context.Context, id SubmissionID) ([]ControlAssessment, error)
}

// SettingsProvider port (system settings)
type SettingsProvider interface {
	ConfidenceThreshold(ctx context.Context) (float64, error)
}

// ProcessingRequester starts the external analysis for a new submission.
type ProcessingRequester interface {
	RequestProcessing(ctx context.Context, s *Submission) error
}
