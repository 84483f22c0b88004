package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, domain.DefaultConfidenceThreshold, cfg.Review.ConfidenceThreshold)
	assert.Equal(t, 5, cfg.Review.MaxConflictRetries)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DB_PASSWORD", "db-env")
	t.Setenv("MINIO_SECRET_KEY", "minio-env")

	cfg, err := Parse([]byte(`
database:
  driver: postgres
  password: from-file
openai:
  apiKey: from-file
minio:
  secretKey: from-file
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "db-env", cfg.Database.Password)
	assert.Equal(t, "minio-env", cfg.Minio.SecretKey)
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"driver":    "database:\n  driver: sqlite\n",
		"threshold": "review:\n  confidenceThreshold: 1.5\n",
		"retries":   "review:\n  maxConflictRetries: -1\n",
		"yaml":      "server: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestIntakePolicyOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
review:
  validationTypes: ["Gen AI Competency", "Migration Competency"]
  categoryRequiredFor: []
  maxArtifactBytes: 1024
`))
	require.NoError(t, err)

	p := cfg.IntakePolicy()
	assert.Len(t, p.ValidationTypes, 2)
	assert.Empty(t, p.CategoryRequiredFor)
	assert.EqualValues(t, 1024, p.MaxArtifactBytes)
	assert.Equal(t, domain.DefaultIntakePolicy().CompetencyCategories, p.CompetencyCategories)
}

func TestStaticSettings(t *testing.T) {
	v, err := StaticSettings{Threshold: 0.7}.ConfidenceThreshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)
}
