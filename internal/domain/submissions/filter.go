package submissions

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matches reports whether the free-text filter occurs, case-insensitively, in
// the id, partner name, validation type or competency category. An empty
// filter matches everything.
func Matches(s *Submission, filter string) bool {
	q := strings.TrimSpace(filter)
	if q == "" {
		return true
	}
	// Caser is stateful, one per call
	fold := cases.Fold()
	q = fold.String(q)
	for _, field := range []string{string(s.ID), s.PartnerName, s.ValidationType, s.CompetencyCategory} {
		if strings.Contains(fold.String(field), q) {
			return true
		}
	}
	return false
}
