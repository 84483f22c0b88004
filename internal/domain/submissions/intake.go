package submissions

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// Artifact is one uploaded evidence file.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Intake is the metadata a partner submits.
type Intake struct {
	PartnerName        string
	SalesforceID       string
	ValidationType     string
	CompetencyCategory string
	SelfAssessment     *Artifact
	AdditionalFiles    []Artifact
}

// IntakePolicy holds the configurable intake rules.
type IntakePolicy struct {
	ValidationTypes      []string
	CompetencyCategories []string
	// CategoryRequiredFor lists validation types that need a competency category
	CategoryRequiredFor []string
	MaxArtifactBytes    int64
}

const GenAICompetency = "Gen AI Competency"

// DefaultIntakePolicy mirrors the categories offered by the submission form.
func DefaultIntakePolicy() IntakePolicy {
	return IntakePolicy{
		ValidationTypes: []string{GenAICompetency},
		CompetencyCategories: []string{
			"Generative AI applications: Horizontal applications",
			"Generative AI applications: Vertical-specific applications",
			"Foundation Models (FMs) and Application Development: Foundation Models",
			"Foundation Models (FMs) and Application Development: FMOPs Tools and Platforms",
			"Foundation Models (FMs) and Application Development: FM-based app development tools and platforms",
			"Infrastructure and Data: Purpose-built AI Hardware",
			"Infrastructure and Data: Data tools and Platforms: Vector Databases",
			"Infrastructure and Data: Data tools and Platforms: Synthetic Data Generation",
		},
		CategoryRequiredFor: []string{GenAICompetency},
		MaxArtifactBytes:    50 << 20,
	}
}

// Validate checks every field and reports all violations in one ValidationError.
func (p IntakePolicy) Validate(in Intake) error {
	verr := &ValidationError{}

	if strings.TrimSpace(in.PartnerName) == "" {
		verr.add("partner_name", "REQUIRED", "Partner name is required")
	}
	if strings.TrimSpace(in.SalesforceID) == "" {
		verr.add("salesforce_id", "REQUIRED", "Salesforce ID is required")
	}

	vt := strings.TrimSpace(in.ValidationType)
	switch {
	case vt == "":
		verr.add("validation_type", "REQUIRED", "Validation type is required")
	case len(p.ValidationTypes) > 0 && !slices.Contains(p.ValidationTypes, vt):
		verr.add("validation_type", "ENUM_INVALID", fmt.Sprintf("Validation type must be one of: %s", strings.Join(p.ValidationTypes, ", ")))
	}

	cat := strings.TrimSpace(in.CompetencyCategory)
	if cat == "" && slices.Contains(p.CategoryRequiredFor, vt) {
		verr.add("competency_category", "REQUIRED", "Competency category is required for "+vt)
	}
	if cat != "" && len(p.CompetencyCategories) > 0 && !slices.Contains(p.CompetencyCategories, cat) {
		verr.add("competency_category", "ENUM_INVALID", "Competency category is not recognised")
	}

	if in.SelfAssessment == nil || len(in.SelfAssessment.Data) == 0 {
		verr.add("self_assessment", "REQUIRED", "Self-assessment file is required")
	} else {
		p.checkArtifact(verr, "self_assessment", *in.SelfAssessment)
	}
	for i, a := range in.AdditionalFiles {
		p.checkArtifact(verr, fmt.Sprintf("additional_files[%d]", i), a)
	}

	if verr.hasIssues() {
		verr.sort()
		return verr
	}
	return nil
}

func (p IntakePolicy) checkArtifact(verr *ValidationError, field string, a Artifact) {
	name := strings.TrimSpace(a.Name)
	if name == "" || name != path.Base(name) || strings.Contains(name, "..") {
		verr.add(field, "NAME_INVALID", "File name is missing or contains a path")
	}
	if len(a.Data) == 0 {
		verr.add(field, "EMPTY", "File is empty")
	}
	if p.MaxArtifactBytes > 0 && int64(len(a.Data)) > p.MaxArtifactBytes {
		verr.add(field, "LIMIT_EXCEEDED", fmt.Sprintf("File exceeds size limit (%d bytes)", p.MaxArtifactBytes))
	}
}

// SelfAssessmentKey builds the blob key for the self-assessment file.
func SelfAssessmentKey(id SubmissionID, stamp int64, name string) string {
	return fmt.Sprintf("%s/self-assessment/%d-%s", id, stamp, name)
}

// AdditionalDocKey builds the blob key for an additional evidence file.
func AdditionalDocKey(id SubmissionID, stamp int64, name string) string {
	return fmt.Sprintf("%s/additional-docs/%d-%s", id, stamp, name)
}
