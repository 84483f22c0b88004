package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

// EncodeArtifacts writes the artifact keys column.
func EncodeArtifacts(a domain.Artifacts) ([]byte, error) {
	return json.Marshal(a)
}

// DecodeArtifacts reads the artifact keys column; empty means none.
func DecodeArtifacts(raw []byte) (domain.Artifacts, error) {
	var a domain.Artifacts
	if strings.TrimSpace(string(raw)) == "" {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("decode artifacts: %w", err)
	}
	return a, nil
}

// ParseStatus maps stored status strings, including legacy snake/lower-case
// spellings, onto the canonical enum.
func ParseStatus(s string) (domain.Status, error) {
	norm := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s)))
	switch norm {
	case "pending":
		return domain.StatusPending, nil
	case "in review":
		return domain.StatusInReview, nil
	case "ai validation":
		return domain.StatusAIValidation, nil
	case "human validation":
		return domain.StatusHumanValidation, nil
	case "approved":
		return domain.StatusApproved, nil
	case "rejected":
		return domain.StatusRejected, nil
	}
	return "", fmt.Errorf("unknown submission status %q", s)
}
