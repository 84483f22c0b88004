package submissions

import (
	"fmt"
	"strings"
	"time"
)

// The transitions below never mutate their input. Each returns a fresh copy
// so a failed step leaves the caller's record untouched.

// AttachControls applies Pending -> AI Validation with the analysis output.
func AttachControls(s *Submission, controls []ControlAssessment, now time.Time) (*Submission, error) {
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: %w: submission %s is %s", ErrInvalidTransition, ErrTerminalState, s.ID, s.Status)
	}
	if s.Status != StatusPending {
		return nil, fmt.Errorf("%w: attach analysis requires %q, submission %s is %q", ErrInvalidTransition, StatusPending, s.ID, s.Status)
	}
	if len(controls) == 0 {
		return nil, fmt.Errorf("%w: analysis output for %s has no controls", ErrInvalidTransition, s.ID)
	}

	verr := &ValidationError{}
	seen := make(map[string]struct{}, len(controls))
	attached := make([]ControlAssessment, 0, len(controls))
	for i, c := range controls {
		c.ControlID = strings.TrimSpace(c.ControlID)
		field := fmt.Sprintf("controls[%d]", i)
		if c.ControlID == "" {
			verr.add(field+".control_id", "REQUIRED", "control_id is required")
			continue
		}
		if _, dup := seen[c.ControlID]; dup {
			verr.add(field+".control_id", "DUPLICATE", "control_id "+c.ControlID+" appears more than once")
			continue
		}
		seen[c.ControlID] = struct{}{}
		if err := CheckScore(c.ConfidenceScore); err != nil {
			return nil, fmt.Errorf("control %s: %w", c.ControlID, err)
		}
		// the analysis verdict is kept as a suggestion, the control itself
		// always starts pending
		if c.AISuggestion == "" && c.PassFail != PassFailPending && c.PassFail.Valid() {
			c.AISuggestion = c.PassFail
		}
		if !c.AISuggestion.Valid() {
			c.AISuggestion = ""
		}
		c.PassFail = PassFailPending
		c.DecidedBy = ""
		c.DecidedAt = nil
		attached = append(attached, c)
	}
	if verr.hasIssues() {
		verr.sort()
		return nil, verr
	}

	out := s.Clone()
	out.Controls = attached
	out.Status = StatusAIValidation
	out.UpdatedAt = now
	return out, nil
}

// ApplyDecision records a human pass/fail on one control and re-derives the
// aggregate status. Repeating the same decision is a no-op on pass/fail; the
// notes are still overwritten.
func ApplyDecision(s *Submission, controlID string, d Decision, notes, reviewer string, now time.Time) (*Submission, error) {
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: submission %s is %s", ErrTerminalState, s.ID, s.Status)
	}
	if !s.Status.UnderValidation() {
		return nil, fmt.Errorf("%w: no analysis attached to %s (status %q)", ErrInvalidTransition, s.ID, s.Status)
	}
	if d != DecisionPass && d != DecisionFail {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, d)
	}
	idx := s.Control(controlID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s in submission %s", ErrControlNotFound, controlID, s.ID)
	}

	target := d.passFail()
	current := s.Controls[idx].PassFail
	if current != PassFailPending && current != target {
		return nil, fmt.Errorf("%w: control %s already %s", ErrInvalidTransition, controlID, current)
	}

	out := s.Clone()
	c := &out.Controls[idx]
	c.PassFail = target
	if strings.TrimSpace(notes) != "" {
		c.ReasonOrNotes = notes
	}
	c.DecidedBy = reviewer
	t := now
	c.DecidedAt = &t

	if out.Status == StatusAIValidation {
		out.Status = StatusHumanValidation
	}
	out.Status = DeriveStatus(out)
	out.UpdatedAt = now
	return out, nil
}

// DeriveStatus computes the aggregate status after a control-level decision:
// any fail rejects, no pending approves, otherwise review continues.
func DeriveStatus(s *Submission) Status {
	sum := s.Counts()
	switch {
	case sum.Failed > 0:
		return StatusRejected
	case sum.Pending == 0:
		return StatusApproved
	default:
		return StatusHumanValidation
	}
}

// Reject closes a submission outright, pending controls included.
func Reject(s *Submission, now time.Time) (*Submission, error) {
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: submission %s is %s", ErrTerminalState, s.ID, s.Status)
	}
	out := s.Clone()
	out.Status = StatusRejected
	out.UpdatedAt = now
	return out, nil
}

// Approve closes a submission as approved. Pending work cannot be forced through.
func Approve(s *Submission, now time.Time) (*Submission, error) {
	if s.Status.Terminal() {
		return nil, fmt.Errorf("%w: submission %s is %s", ErrTerminalState, s.ID, s.Status)
	}
	if !s.Status.UnderValidation() {
		return nil, fmt.Errorf("%w: cannot approve %s from %q", ErrInvalidTransition, s.ID, s.Status)
	}
	sum := s.Counts()
	if sum.Pending > 0 {
		return nil, fmt.Errorf("%w: %d of %d controls pending on %s", ErrPendingControls, sum.Pending, sum.Total, s.ID)
	}
	if sum.Failed > 0 {
		return nil, fmt.Errorf("%w: %d failing controls on %s", ErrInvalidTransition, sum.Failed, s.ID)
	}
	out := s.Clone()
	out.Status = StatusApproved
	out.UpdatedAt = now
	return out, nil
}
