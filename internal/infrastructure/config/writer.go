package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Jurisflow Configuration
# Every key can be overridden with JURISFLOW_<SECTION>__<KEY>, e.g. JURISFLOW_SERVER__PORT=9090.

llm:
  provider: openai
  model: gpt-4o-mini
  requests_per_minute: 60
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

embedder:
  provider: openai
  model: text-embedding-3-small

qdrant:
  enabled: false
  host: localhost
  port: 6334
  collection: jurisflow_timeline
  # api_key: your-api-key (for Qdrant Cloud)

sqlite:
  path: .jurisflow/jurisflow.db

server:
  host: 0.0.0.0
  port: 8080
  mode: release
  max_body_size_mb: 1
  shutdown_timeout: 10s

timeline:
  enrichment_threshold: 0.85
  related_threshold: 0.70
  date_proximity_days: 3
  enrichment_credit_cost: "1"
  max_enrichment_retries: 3
  enrichment_timeout: 15s
  retry_backoff: 250ms
  prompt_variant: standard   # standard | concise | formal
  max_input_length: 4000

ingest:
  batch_concurrency: 4
  conflict_retries: 3
  pattern: "**/*.{json,csv}"
  time_zone: America/Sao_Paulo   # for dates without an offset
`

// WriteDefault creates the .jurisflow directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file. API keys are never written.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	redacted := *cfg
	redacted.LLM.APIKey = ""
	redacted.Embedder.APIKey = ""
	redacted.Qdrant.APIKey = ""

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
