package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BIGQUERY_PROJECT", "my-project")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.BigQueryProject)
	assert.Equal(t, "video_intelligence", cfg.BigQueryDataset)
	assert.Equal(t, 2*time.Hour, cfg.AnnotationTimeout)
	assert.Equal(t, "gs://", cfg.GCSPrefix)
	assert.Equal(t, "/gcs/", cfg.GCSMountPath)
	assert.Equal(t, "pipeline.runs", cfg.RabbitMQRunQueue)
	assert.Equal(t, 4, cfg.PipelineParallelism)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	assert.Equal(t, 8083, cfg.MetricsPort)
	assert.Equal(t, "http://jaeger:4318/v1/traces", cfg.JaegerEndpoint)
	assert.Empty(t, cfg.TextLanguageHints)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BIGQUERY_PROJECT", "my-project")
	t.Setenv("ANNOTATION_TIMEOUT", "90m")
	t.Setenv("TEXT_LANGUAGE_HINTS", "en,pt-BR")
	t.Setenv("PIPELINE_PARALLELISM", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.AnnotationTimeout)
	assert.Equal(t, []string{"en", "pt-BR"}, cfg.TextLanguageHints)
	assert.Equal(t, 16, cfg.PipelineParallelism)
}

func TestLoadRequiresProject(t *testing.T) {
	t.Setenv("BIGQUERY_PROJECT", "")
	os.Unsetenv("BIGQUERY_PROJECT")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BIGQUERY_DATASET=from_dotenv\n"), 0644))
	t.Setenv("BIGQUERY_PROJECT", "my-project")
	t.Setenv("BIGQUERY_DATASET", "")
	os.Unsetenv("BIGQUERY_DATASET")

	assert.True(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("BIGQUERY_DATASET") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.BigQueryDataset)

	assert.False(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
