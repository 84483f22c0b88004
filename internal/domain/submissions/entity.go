package submissions

import (
	"time"
)

// SubmissionID is the external application identifier (e.g. APP-2025-1A2B3C4D)
type SubmissionID string

// Status enum for the submission lifecycle
type Status string

const (
	StatusPending         Status = "Pending"
	StatusInReview        Status = "In Review" // placeholder, no transition leads here
	StatusAIValidation    Status = "AI Validation"
	StatusHumanValidation Status = "Human Validation"
	StatusApproved        Status = "Approved"
	StatusRejected        Status = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusAIValidation, StatusHumanValidation, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// UnderValidation is true for the two statuses that carry analysis output.
func (s Status) UnderValidation() bool {
	return s == StatusAIValidation || s == StatusHumanValidation
}

// PassFail enum for a single control
type PassFail string

const (
	PassFailPending PassFail = "pending"
	PassFailPass    PassFail = "pass"
	PassFailFail    PassFail = "fail"
)

// Valid reports whether p is pending, pass or fail.
func (p PassFail) Valid() bool {
	return p == PassFailPending || p == PassFailPass || p == PassFailFail
}

// Decision is what a reviewer records for one control.
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionFail Decision = "fail"
)

// ParseDecision accepts "pass"/"fail" and the UI's "approve"/"reject" wording.
func ParseDecision(s string) (Decision, bool) {
	switch s {
	case "pass", "approve", "approved":
		return DecisionPass, true
	case "fail", "reject", "rejected":
		return DecisionFail, true
	}
	return "", false
}

func (d Decision) passFail() PassFail {
	if d == DecisionPass {
		return PassFailPass
	}
	return PassFailFail
}

// ControlAssessment value object: one control's automated score and human decision
type ControlAssessment struct {
	ControlID       string     `json:"control_id"`
	Title           string     `json:"title"`
	ConfidenceScore float64    `json:"confidence_score"`
	PassFail        PassFail   `json:"pass_fail"`
	ReasonOrNotes   string     `json:"reason_or_notes"`
	AISuggestion    PassFail   `json:"ai_suggestion,omitempty"`
	DecidedBy       string     `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

// Artifacts holds blob keys of the uploaded evidence.
type Artifacts struct {
	SelfAssessmentKey string   `json:"self_assessment_key"`
	AdditionalKeys    []string `json:"additional_keys,omitempty"`
}

// Aggregate Root: Submission
type Submission struct {
	ID                 SubmissionID        `json:"id"`
	PartnerName        string              `json:"partner_name"`
	SalesforceID       string              `json:"salesforce_id"`
	ValidationType     string              `json:"validation_type"`
	CompetencyCategory string              `json:"competency_category,omitempty"`
	SubmittedAt        time.Time           `json:"submitted_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Status             Status              `json:"status"`
	Artifacts          Artifacts           `json:"artifacts"`
	Controls           []ControlAssessment `json:"controls"`
	Version            int64               `json:"version"`
}

// Clone returns a deep copy so the state machine never mutates a caller's record.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	out := *s
	out.Artifacts.AdditionalKeys = append([]string(nil), s.Artifacts.AdditionalKeys...)
	out.Controls = make([]ControlAssessment, len(s.Controls))
	for i, c := range s.Controls {
		if c.DecidedAt != nil {
			t := *c.DecidedAt
			c.DecidedAt = &t
		}
		out.Controls[i] = c
	}
	return &out
}

// Control returns the index of controlID within Controls, or -1.
func (s *Submission) Control(controlID string) int {
	for i := range s.Controls {
		if s.Controls[i].ControlID == controlID {
			return i
		}
	}
	return -1
}

// Counts tallies control outcomes.
func (s *Submission) Counts() Summary {
	var sum Summary
	for _, c := range s.Controls {
		switch c.PassFail {
		case PassFailPass:
			sum.Passed++
		case PassFailFail:
			sum.Failed++
		default:
			sum.Pending++
		}
		sum.Total++
	}
	return sum
}

// Summary value object behind the validation report
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// Patch is a conditional partial update applied by the record store.
// Controls replaces the whole ordered list when non-nil.
type Patch struct {
	Status    Status
	Controls  []ControlAssessment
	UpdatedAt time.Time
}

// SameState reports whether o carries the same status and control outcomes
// as s. Timestamps are compared with Equal; UpdatedAt and Version are ignored.
func (s *Submission) SameState(o *Submission) bool {
	if s == nil || o == nil || s.Status != o.Status || len(s.Controls) != len(o.Controls) {
		return false
	}
	for i, a := range s.Controls {
		b := o.Controls[i]
		if a.ControlID != b.ControlID || a.PassFail != b.PassFail || a.ConfidenceScore != b.ConfidenceScore ||
			a.ReasonOrNotes != b.ReasonOrNotes || a.AISuggestion != b.AISuggestion || a.DecidedBy != b.DecidedBy {
			return false
		}
		if (a.DecidedAt == nil) != (b.DecidedAt == nil) {
			return false
		}
		if a.DecidedAt != nil && !a.DecidedAt.Equal(*b.DecidedAt) {
			return false
		}
	}
	return true
}
