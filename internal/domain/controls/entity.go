package controls

// Control is one compliance control definition of the catalog.
// Submissions reference it by ID only.
type Control struct {
	ID                        string   `json:"id" yaml:"id"`
	Title                     string   `json:"title" yaml:"title"`
	Description               string   `json:"description" yaml:"description"`
	EvidenceExpected          string   `json:"evidence_expected,omitempty" yaml:"evidenceExpected"`
	AcceptableExamples        string   `json:"acceptable_examples,omitempty" yaml:"acceptableExamples"`
	BadExamples               string   `json:"bad_examples,omitempty" yaml:"badExamples"`
	ImplementationSuggestions string   `json:"implementation_suggestions,omitempty" yaml:"implementationSuggestions"`
	EvidenceTypes             []string `json:"evidence_types,omitempty" yaml:"evidenceTypes"`
	Category                  string   `json:"category" yaml:"category"`
}

// Catalog is the ordered set of known controls.
type Catalog []Control

// ForCategory returns controls whose category is empty (apply to all) or equals category.
func (c Catalog) ForCategory(category string) []Control {
	out := make([]Control, 0, len(c))
	for _, ctl := range c {
		if ctl.Category == "" || category == "" || ctl.Category == category {
			out = append(out, ctl)
		}
	}
	return out
}

// Find returns the control with id, if any.
func (c Catalog) Find(id string) (Control, bool) {
	for _, ctl := range c {
		if ctl.ID == id {
			return ctl, true
		}
	}
	return Control{}, false
}
