package audit

import "time"

// Action enum
type Action string

const (
	ActionCreated          Action = "created"
	ActionProcessRequested Action = "process_requested"
	ActionProcessFailed    Action = "process_failed"
	ActionAnalysisAttached Action = "analysis_attached"
	ActionDecision         Action = "decision_recorded"
	ActionApproved         Action = "approved"
	ActionRejected         Action = "rejected"
)

// Entry is one immutable line of a submission's history
type Entry struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	ControlID    string    `json:"control_id,omitempty"`
	Action       Action    `json:"action"`
	Actor        string    `json:"actor,omitempty"`
	StatusBefore string    `json:"status_before,omitempty"`
	StatusAfter  string    `json:"status_after,omitempty"`
	Message      string    `json:"message,omitempty"`
	DetailsJSON  string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt    time.Time `json:"created_at"`
}
