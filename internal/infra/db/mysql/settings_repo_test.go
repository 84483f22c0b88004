package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreshold(t *testing.T) {
	for raw, want := range map[string]float64{
		"0.8":   0.8,
		"80":    0.8,
		" 75% ": 0.75,
		"1":     1,
		"0":     0,
		"100":   1,
	} {
		got, err := ParseThreshold(raw)
		require.NoError(t, err, raw)
		assert.InDelta(t, want, got, 1e-9, raw)
	}
	for _, raw := range []string{"", "high", "-0.2", "150"} {
		_, err := ParseThreshold(raw)
		assert.Error(t, err, raw)
	}
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLikePattern(`100%_a\b`))
	assert.Equal(t, `%acme\%%`, likeArg(" ACME% "))
}
