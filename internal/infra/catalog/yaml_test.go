package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
controls:
  - id: " GENAI-001 "
    title: Model selection
    evidenceTypes: [architecture, runbook]
  - id: INFRA-001
    title: Accelerators
    category: "Infrastructure and Data: Purpose-built AI Hardware"
`

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, cat, 2)
	assert.Equal(t, "GENAI-001", cat[0].ID)
	assert.Equal(t, []string{"architecture", "runbook"}, cat[0].EvidenceTypes)

	assert.Len(t, cat.ForCategory("Generative AI applications: Horizontal applications"), 1)
	assert.Len(t, cat.ForCategory("Infrastructure and Data: Purpose-built AI Hardware"), 2)
	_, ok := cat.Find("INFRA-001")
	assert.True(t, ok)
}

func TestParseRejectsBadIDs(t *testing.T) {
	_, err := Parse([]byte("controls:\n  - title: nameless\n"))
	assert.ErrorContains(t, err, "no id")
	_, err = Parse([]byte("controls:\n  - id: A\n  - id: A\n"))
	assert.ErrorContains(t, err, "duplicate id A")
	_, err = Parse([]byte("controls: [\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	cat, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cat)

	p := filepath.Join(t.TempDir(), "controls.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))
	cat, err = Load(p)
	require.NoError(t, err)
	assert.Len(t, cat, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
