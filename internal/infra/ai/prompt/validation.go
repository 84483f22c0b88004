package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/partner-review/internal/domain/ai"
	"github.com/bryanwahyu/partner-review/internal/domain/controls"
)

// maxEvidenceChars bounds the self-assessment text sent upstream.
const maxEvidenceChars = 60000

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a partner competency validator. You review a partner's self-assessment against a list of technical controls. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object with a "controls" array.
- Return exactly one item per control listed in the prompt, using its id verbatim as control_id.
- confidence_score is a number between 0 and 1 describing how sure you are of pass_fail.
- pass_fail is "pass" when the self-assessment contains evidence meeting the control, otherwise "fail".
- reason_or_notes cites the evidence found or names what is missing. Keep it under 400 characters.
- If the self-assessment does not address a control at all, answer "fail" with a low confidence_score.

Schema (example with empty values):
{
  "controls": [
    {
      "control_id": "<string>",
      "title": "<string>",
      "confidence_score": 0.0,
      "pass_fail": "<pass|fail>",
      "reason_or_notes": "<string>"
    }
  ]
}`
}

type promptControl struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	EvidenceExpected string   `json:"evidence_expected,omitempty"`
	EvidenceTypes    []string `json:"evidence_types,omitempty"`
}

// GetUserPrompt builds the user message: submission metadata, the controls to
// assess and the redacted self-assessment text.
func GetUserPrompt(req ai.Request) string {
	list := make([]promptControl, 0, len(req.Controls))
	for _, c := range req.Controls {
		list = append(list, promptControl{
			ID:               c.ID,
			Title:            c.Title,
			Description:      c.Description,
			EvidenceExpected: c.EvidenceExpected,
			EvidenceTypes:    c.EvidenceTypes,
		})
	}
	ctl, _ := json.MarshalIndent(list, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Submission: %s\n", req.SubmissionID)
	fmt.Fprintf(&b, "Partner: %s\n", req.PartnerName)
	fmt.Fprintf(&b, "Validation type: %s\n", req.ValidationType)
	if req.CompetencyCategory != "" {
		fmt.Fprintf(&b, "Competency category: %s\n", req.CompetencyCategory)
	}
	fmt.Fprintf(&b, "\nControls to assess:\n%s\n", ctl)
	fmt.Fprintf(&b, "\nSelf-assessment:\n%s\n", Evidence(req.SelfAssessment))
	return b.String()
}

// Evidence turns the uploaded bytes into redacted, bounded prompt text.
func Evidence(raw []byte) string {
	text := strings.ToValidUTF8(string(raw), "")
	text = Redact(text)
	if len(text) > maxEvidenceChars {
		text = text[:maxEvidenceChars] + "\n[truncated]"
	}
	return text
}

// ControlIDs lists the ids asked for, in order.
func ControlIDs(list []controls.Control) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}
