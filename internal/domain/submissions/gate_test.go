package submissions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsVerification(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		threshold float64
		want      bool
	}{
		{"below", 0.79, 0.8, true},
		{"equal is accepted", 0.8, 0.8, false},
		{"above", 0.95, 0.8, false},
		{"zero threshold accepts all", 0, 0, false},
		{"full threshold flags all but perfect", 0.99, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NeedsVerification(tt.score, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeedsVerificationRejectsBadScores(t *testing.T) {
	for _, s := range []float64{-0.01, 1.01, 95, math.NaN()} {
		_, err := NeedsVerification(s, 0.8)
		assert.ErrorIs(t, err, ErrInvalidScore, "score %v", s)
	}
}

func TestScenarioAVerificationView(t *testing.T) {
	controls := []ControlAssessment{
		{ControlID: "A", ConfidenceScore: 0.5, PassFail: PassFailPending},
		{ControlID: "B", ConfidenceScore: 0.9, PassFail: PassFailPending},
		{ControlID: "C", ConfidenceScore: 0.95, PassFail: PassFailPending},
	}
	needing, err := NeedingVerification(controls, 0.8)
	require.NoError(t, err)
	require.Len(t, needing, 1)
	assert.Equal(t, "A", needing[0].ControlID)
	assert.InDelta(t, 0.7833, AverageConfidence(controls), 0.0001)
}

func TestNeedingVerificationSkipsDecided(t *testing.T) {
	controls := []ControlAssessment{
		{ControlID: "A", ConfidenceScore: 0.5, PassFail: PassFailPass},
		{ControlID: "B", ConfidenceScore: 0.2, PassFail: PassFailPending},
	}
	needing, err := NeedingVerification(controls, 0.8)
	require.NoError(t, err)
	require.Len(t, needing, 1)
	assert.Equal(t, "B", needing[0].ControlID)
}

func TestAverageConfidenceEmpty(t *testing.T) {
	assert.Zero(t, AverageConfidence(nil))
}

func TestValidThreshold(t *testing.T) {
	assert.True(t, ValidThreshold(0))
	assert.True(t, ValidThreshold(1))
	assert.False(t, ValidThreshold(-0.1))
	assert.False(t, ValidThreshold(80))
	assert.False(t, ValidThreshold(math.NaN()))
}
