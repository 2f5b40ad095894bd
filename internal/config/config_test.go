package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FINANCE_DATA_DIR", "LOG_LEVEL", "LOG_FORMAT",
	"FINANCE_STORAGE", "FINANCE_BOLT_PATH", "GCS_BUCKET", "GCS_OBJECT",
	"FINANCE_MODEL_PATH",
	"LLM_PROVIDER", "LLM_API_KEY", "OPENAI_API_KEY", "LLM_MODEL", "OPENAI_MODEL",
	"LLM_API_URL", "OPENAI_BASE_URL", "LLM_TIMEOUT", "LLM_CACHE_TTL",
	"BQ_PROJECT", "GOOGLE_CLOUD_PROJECT", "BQ_DATASET", "BQ_TABLE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, BackendBolt, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("data", "vault.db"), cfg.Storage.BoltPath)
	assert.Equal(t, filepath.Join("data", "models", "expense_clf.bayes"), cfg.Classifier.ModelPath)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, DefaultLLMModel, cfg.LLM.Model)
	assert.Equal(t, 12*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, time.Hour, cfg.LLM.CacheTTL)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, DefaultDataset, cfg.BigQuery.Dataset)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
data_dir: /var/lib/finance
log_level: debug
storage:
  backend: gcs
  gcs_bucket: my-bucket
  gcs_object: vault/snapshot.json
llm:
  provider: gemini
  model: gemini-2.5-flash
  timeout: 30s
  cache_ttl: 10m
bigquery:
  project: my-project
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendGCS, cfg.Storage.Backend)
	assert.Equal(t, "my-bucket", cfg.Storage.GCSBucket)
	assert.Equal(t, filepath.Join("/var/lib/finance", "vault.db"), cfg.Storage.BoltPath)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.LLM.CacheTTL)
	assert.Equal(t, "my-project", cfg.BigQuery.Project)
	assert.Equal(t, DefaultTable, cfg.BigQuery.Table)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "llm:\n  model: from-file\n  timeout: 30s\n")
	t.Setenv("LLM_MODEL", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "5")
	t.Setenv("LLM_CACHE_TTL", "90s")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 90*time.Second, cfg.LLM.CacheTTL)
}

func TestLoad_PrimaryEnvWinsOverAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "primary")
	t.Setenv("OPENAI_API_KEY", "alias")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.LLM.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "storage: [unclosed"},
		{name: "unknown backend", env: map[string]string{"FINANCE_STORAGE": "s3"}},
		{name: "gcs without bucket", env: map[string]string{"FINANCE_STORAGE": "gcs"}},
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "cohere"}},
		{name: "bad duration", env: map[string]string{"LLM_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := Load(path)

			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}
