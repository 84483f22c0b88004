package submissions

import (
	"fmt"
	"math"
)

// DefaultConfidenceThreshold applies when settings carry no threshold.
const DefaultConfidenceThreshold = 0.80

// NeedsVerification reports whether a control scored below threshold and must
// be human-verified. A score equal to the threshold is auto-accepted.
func NeedsVerification(score, threshold float64) (bool, error) {
	if err := CheckScore(score); err != nil {
		return false, err
	}
	return score < threshold, nil
}

// CheckScore rejects scores outside [0,1] (and NaN) instead of clamping.
func CheckScore(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return fmt.Errorf("%w: %v not in [0,1]", ErrInvalidScore, score)
	}
	return nil
}

// ValidThreshold reports whether t can be used as a gate threshold.
func ValidThreshold(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t <= 1
}

// AverageConfidence is the arithmetic mean of all scores, 0 without controls.
func AverageConfidence(controls []ControlAssessment) float64 {
	if len(controls) == 0 {
		return 0
	}
	var sum float64
	for _, c := range controls {
		sum += c.ConfidenceScore
	}
	return sum / float64(len(controls))
}

// NeedingVerification returns the still-pending controls scored below threshold.
func NeedingVerification(controls []ControlAssessment, threshold float64) ([]ControlAssessment, error) {
	out := make([]ControlAssessment, 0)
	for _, c := range controls {
		flag, err := NeedsVerification(c.ConfidenceScore, threshold)
		if err != nil {
			return nil, fmt.Errorf("control %s: %w", c.ControlID, err)
		}
		if flag && c.PassFail == PassFailPending {
			out = append(out, c)
		}
	}
	return out, nil
}
