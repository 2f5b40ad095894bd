// Package config loads runtime settings from an optional YAML file, a .env
// file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendBolt = "bolt"
	BackendGCS  = "gcs"

	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	DefaultDataDir  = "data"
	DefaultLLMModel = "allenai/olmo-3.1-32b-think:free"
	DefaultDataset  = "finance"
	DefaultTable    = "categorized_transactions"
)

// Config is the full runtime configuration.
type Config struct {
	DataDir   string `yaml:"data_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Storage    StorageConfig    `yaml:"storage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	LLM        LLMConfig        `yaml:"llm"`
	BigQuery   BigQueryConfig   `yaml:"bigquery"`
}

// StorageConfig selects where the vault snapshot lives.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // bolt | gcs
	BoltPath  string `yaml:"bolt_path"`
	GCSBucket string `yaml:"gcs_bucket"`
	GCSObject string `yaml:"gcs_object"`
}

type ClassifierConfig struct {
	ModelPath string `yaml:"model_path"`
}

// LLMConfig configures the external model. An empty APIKey disables it.
type LLMConfig struct {
	Provider string        `yaml:"provider"` // openai | gemini | anthropic
	URL      string        `yaml:"url"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type BigQueryConfig struct {
	Project string `yaml:"project"`
	Dataset string `yaml:"dataset"`
	Table   string `yaml:"table"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DataDir:   DefaultDataDir,
		LogLevel:  "info",
		LogFormat: "console",
		Storage:   StorageConfig{Backend: BackendBolt},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    DefaultLLMModel,
			Timeout:  12 * time.Second,
			CacheTTL: time.Hour,
		},
		BigQuery: BigQueryConfig{Dataset: DefaultDataset, Table: DefaultTable},
	}
}

// Load builds the configuration. path may be empty; a named file must exist.
// A .env file in the working directory is loaded when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("Load: parsing config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Load: reading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.DataDir, "FINANCE_DATA_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	setString(&c.Storage.Backend, "FINANCE_STORAGE")
	setString(&c.Storage.BoltPath, "FINANCE_BOLT_PATH")
	setString(&c.Storage.GCSBucket, "GCS_BUCKET")
	setString(&c.Storage.GCSObject, "GCS_OBJECT")

	setString(&c.Classifier.ModelPath, "FINANCE_MODEL_PATH")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.APIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL", "OPENAI_MODEL")
	setString(&c.LLM.URL, "LLM_API_URL", "OPENAI_BASE_URL")
	if err := setDuration(&c.LLM.Timeout, "LLM_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.LLM.CacheTTL, "LLM_CACHE_TTL"); err != nil {
		return err
	}

	setString(&c.BigQuery.Project, "BQ_PROJECT", "GOOGLE_CLOUD_PROJECT")
	setString(&c.BigQuery.Dataset, "BQ_DATASET")
	setString(&c.BigQuery.Table, "BQ_TABLE")
	return nil
}

func (c *Config) fillDerived() {
	if c.Storage.BoltPath == "" {
		c.Storage.BoltPath = filepath.Join(c.DataDir, "vault.db")
	}
	if c.Classifier.ModelPath == "" {
		c.Classifier.ModelPath = filepath.Join(c.DataDir, "models", "expense_clf.bayes")
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBolt:
	case BackendGCS:
		if c.Storage.GCSBucket == "" || c.Storage.GCSObject == "" {
			return fmt.Errorf("storage backend %q requires gcs_bucket and gcs_object", BackendGCS)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout)
	}
	return nil
}

// setString assigns the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}

// setDuration accepts Go durations ("12s") or plain seconds ("12").
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return nil
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		*dst = d
		return nil
	}
	return fmt.Errorf("invalid duration for %s: %s", key, v)
}
