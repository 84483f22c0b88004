package submissions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIntake() Intake {
	return Intake{
		PartnerName:        "Acme",
		SalesforceID:       "SF-001",
		ValidationType:     GenAICompetency,
		CompetencyCategory: "Generative AI applications: Horizontal applications",
		SelfAssessment:     &Artifact{Name: "self.xlsx", Data: []byte("x")},
	}
}

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	out := map[string]string{}
	for _, f := range verr.Fields {
		out[f.Field] = f.Code
	}
	return out
}

func TestIntakeValid(t *testing.T) {
	require.NoError(t, DefaultIntakePolicy().Validate(validIntake()))
}

func TestIntakeReportsAllFields(t *testing.T) {
	err := DefaultIntakePolicy().Validate(Intake{ValidationType: GenAICompetency})
	assert.ErrorIs(t, err, ErrValidation)
	codes := fieldCodes(t, err)
	assert.Equal(t, map[string]string{
		"partner_name":        "REQUIRED",
		"salesforce_id":       "REQUIRED",
		"competency_category": "REQUIRED",
		"self_assessment":     "REQUIRED",
	}, codes)
}

func TestIntakeEnumsAndFiles(t *testing.T) {
	p := DefaultIntakePolicy()
	p.MaxArtifactBytes = 4

	in := validIntake()
	in.ValidationType = "Unknown"
	in.CompetencyCategory = "Made up"
	in.SelfAssessment = &Artifact{Name: "../self.xlsx", Data: []byte("12345")}
	in.AdditionalFiles = []Artifact{{Name: "a.pdf"}}

	codes := fieldCodes(t, p.Validate(in))
	assert.Equal(t, "ENUM_INVALID", codes["validation_type"])
	assert.Equal(t, "ENUM_INVALID", codes["competency_category"])
	assert.Contains(t, []string{"NAME_INVALID", "LIMIT_EXCEEDED"}, codes["self_assessment"])
	assert.Equal(t, "EMPTY", codes["additional_files[0]"])
}

func TestIntakeCategoryOptionalForOtherTypes(t *testing.T) {
	p := DefaultIntakePolicy()
	p.ValidationTypes = append(p.ValidationTypes, "Migration Competency")
	in := validIntake()
	in.ValidationType = "Migration Competency"
	in.CompetencyCategory = ""
	require.NoError(t, p.Validate(in))
}

func TestArtifactKeys(t *testing.T) {
	assert.Equal(t, "APP-1/self-assessment/1700-self.xlsx", SelfAssessmentKey("APP-1", 1700, "self.xlsx"))
	assert.True(t, strings.HasPrefix(AdditionalDocKey("APP-1", 1700, "a.pdf"), "APP-1/additional-docs/"))
}
