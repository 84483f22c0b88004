package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// AnalysisOutputs keeps the latest analysis output per submission.
type AnalysisOutputs struct {
	mu      sync.RWMutex
	outputs map[domain.SubmissionID][]domain.ControlAssessment
	calls   int
}

func NewAnalysisOutputs() *AnalysisOutputs {
	return &AnalysisOutputs{outputs: make(map[domain.SubmissionID][]domain.ControlAssessment)}
}

func (o *AnalysisOutputs) Save(_ context.Context, id domain.SubmissionID, controls []domain.ControlAssessment) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outputs[id] = append([]domain.ControlAssessment(nil), controls...)
	return nil
}

func (o *AnalysisOutputs) GetValidationOutput(_ context.Context, id domain.SubmissionID) ([]domain.ControlAssessment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	v, ok := o.outputs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOutputNotFound, id)
	}
	return append([]domain.ControlAssessment(nil), v...), nil
}

// Calls counts GetValidationOutput invocations.
func (o *AnalysisOutputs) Calls() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.calls
}
