package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "controls.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
controls:
  - id: GENAI-001
    title: Model evaluation
  - id: INFRA-001
    title: Accelerators
    category: Hardware
`), 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  driver: memory\ncatalogPath: "+catalogPath+"\n"), 0o600))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "catalog", "--category", "Software")
	require.NoError(t, err)
	assert.Contains(t, out, "GENAI-001")
	assert.NotContains(t, out, "INFRA-001")
}

func TestThresholdCommands(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "threshold", "get")
	require.NoError(t, err)
	assert.Equal(t, "0.80\n", out)

	_, err = execute(t, "--config", cfgPath, "threshold", "set", "75")
	assert.Error(t, err, "memory driver has no settings table")
}

func TestSubmissionsListEmpty(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "--config", cfgPath, "submissions", "list", "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestProcessNeedsTargets(t *testing.T) {
	cfgPath := writeConfig(t)

	_, err := execute(t, "--config", cfgPath, "process")
	assert.ErrorContains(t, err, "--pending")
}

func TestProcessNeedsAPIKey(t *testing.T) {
	cfgPath := writeConfig(t)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := execute(t, "--config", cfgPath, "process", "APP-2026-X")
	assert.ErrorContains(t, err, "apiKey")
}

func TestProcessNothingPending(t *testing.T) {
	cfgPath := writeConfig(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out, err := execute(t, "--config", cfgPath, "process", "--pending")
	require.NoError(t, err)
	assert.Contains(t, out, "no pending submissions")
}
