// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

const (
	// DefaultConfigDir is the directory name for jurisflow configuration.
	DefaultConfigDir = ".jurisflow"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite file name inside the config directory.
	DefaultDatabaseFile = "jurisflow.db"
	// EnvPrefix prefixes every environment override, e.g. JURISFLOW_SERVER__PORT.
	EnvPrefix = "JURISFLOW_"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	LLM      LLMConfig      `koanf:"llm" yaml:"llm"`
	Embedder EmbedderConfig `koanf:"embedder" yaml:"embedder"`
	Qdrant   QdrantConfig   `koanf:"qdrant" yaml:"qdrant"`
	SQLite   SQLiteConfig   `koanf:"sqlite" yaml:"sqlite"`
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Timeline TimelineConfig `koanf:"timeline" yaml:"timeline"`
	Ingest   IngestConfig   `koanf:"ingest" yaml:"ingest"`
}

// LLMConfig holds configuration for the text-generation provider.
type LLMConfig struct {
	Provider          string `koanf:"provider" yaml:"provider,omitempty"`
	Model             string `koanf:"model" yaml:"model,omitempty"`
	APIKey            string `koanf:"api_key" yaml:"api_key,omitempty"`
	BaseURL           string `koanf:"base_url" yaml:"base_url,omitempty"`
	RequestsPerMinute int    `koanf:"requests_per_minute" yaml:"requests_per_minute,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `koanf:"provider" yaml:"provider,omitempty"`
	Model    string `koanf:"model" yaml:"model,omitempty"`
	APIKey   string `koanf:"api_key" yaml:"api_key,omitempty"`
	BaseURL  string `koanf:"base_url" yaml:"base_url,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
// Semantic search is only wired when Enabled is set.
type QdrantConfig struct {
	Enabled    bool   `koanf:"enabled" yaml:"enabled"`
	Host       string `koanf:"host" yaml:"host,omitempty"`
	Port       int    `koanf:"port" yaml:"port,omitempty"`
	Collection string `koanf:"collection" yaml:"collection,omitempty"`
	APIKey     string `koanf:"api_key" yaml:"api_key,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the database file. Relative paths resolve against the project directory.
	Path string `koanf:"path" yaml:"path,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Host            string `koanf:"host" yaml:"host"`
	Port            int    `koanf:"port" yaml:"port"`
	Mode            string `koanf:"mode" yaml:"mode"` // debug | release
	MaxBodySizeMB   int    `koanf:"max_body_size_mb" yaml:"max_body_size_mb"`
	ShutdownTimeout string `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// TimelineConfig is the raw form of entities.TimelineConfig. Durations and
// amounts stay strings here and are parsed on startup.
type TimelineConfig struct {
	EnrichmentThreshold  float64 `koanf:"enrichment_threshold" yaml:"enrichment_threshold"`
	RelatedThreshold     float64 `koanf:"related_threshold" yaml:"related_threshold"`
	DateProximityDays    int     `koanf:"date_proximity_days" yaml:"date_proximity_days"`
	EnrichmentCreditCost string  `koanf:"enrichment_credit_cost" yaml:"enrichment_credit_cost"`
	MaxEnrichmentRetries int     `koanf:"max_enrichment_retries" yaml:"max_enrichment_retries"`
	EnrichmentTimeout    string  `koanf:"enrichment_timeout" yaml:"enrichment_timeout"`
	RetryBackoff         string  `koanf:"retry_backoff" yaml:"retry_backoff"`
	PromptVariant        string  `koanf:"prompt_variant" yaml:"prompt_variant"`
	MaxInputLength       int     `koanf:"max_input_length" yaml:"max_input_length"`
}

// IngestConfig holds configuration for batch and file ingestion.
type IngestConfig struct {
	BatchConcurrency int    `koanf:"batch_concurrency" yaml:"batch_concurrency"`
	ConflictRetries  int    `koanf:"conflict_retries" yaml:"conflict_retries"`
	Pattern          string `koanf:"pattern" yaml:"pattern"`
	TimeZone         string `koanf:"time_zone" yaml:"time_zone"`
}

// defaults is the base layer every other source overrides.
var defaults = map[string]interface{}{
	"llm.provider":                    "openai",
	"llm.model":                       "gpt-4o-mini",
	"llm.requests_per_minute":         60,
	"embedder.provider":               "openai",
	"embedder.model":                  "text-embedding-3-small",
	"qdrant.enabled":                  false,
	"qdrant.host":                     "localhost",
	"qdrant.port":                     6334,
	"qdrant.collection":               "jurisflow_timeline",
	"sqlite.path":                     filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
	"server.host":                     "0.0.0.0",
	"server.port":                     8080,
	"server.mode":                     "release",
	"server.max_body_size_mb":         1,
	"server.shutdown_timeout":         "10s",
	"timeline.enrichment_threshold":   0.85,
	"timeline.related_threshold":      0.70,
	"timeline.date_proximity_days":    3,
	"timeline.enrichment_credit_cost": "1",
	"timeline.max_enrichment_retries": 3,
	"timeline.enrichment_timeout":     "15s",
	"timeline.retry_backoff":          "250ms",
	"timeline.prompt_variant":         string(entities.PromptStandard),
	"timeline.max_input_length":       4000,
	"ingest.batch_concurrency":        4,
	"ingest.conflict_retries":         3,
	"ingest.pattern":                  "**/*.{json,csv}",
	"ingest.time_zone":                "America/Sao_Paulo",
}

// Default returns a Config with default values.
func Default() *Config {
	k := koanf.New(".")
	for key, value := range defaults {
		_ = k.Set(key, value)
	}
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}

// Load reads configuration from defaults, the optional .jurisflow/config.yaml
// in basePath and JURISFLOW_ environment variables, in that order.
func Load(basePath string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if Exists(basePath) {
		if err := k.Load(file.Provider(ConfigFilePath(basePath)), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyEnvOverrides()

	return &cfg, nil
}

// envKey maps JURISFLOW_TIMELINE__RELATED_THRESHOLD to timeline.related_threshold.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// applyEnvOverrides applies the provider-native environment variables.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
}

// Validate checks the whole configuration once at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}

	if strings.TrimSpace(c.SQLite.Path) == "" {
		return fmt.Errorf("sqlite.path is required")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must be >= 0")
	}
	if c.Qdrant.Enabled && (strings.TrimSpace(c.Qdrant.Host) == "" || c.Qdrant.Port <= 0) {
		return fmt.Errorf("qdrant.host and qdrant.port are required when qdrant is enabled")
	}

	if c.Ingest.BatchConcurrency <= 0 {
		return fmt.Errorf("ingest.batch_concurrency must be > 0")
	}
	if c.Ingest.ConflictRetries < 0 {
		return fmt.Errorf("ingest.conflict_retries must be >= 0")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := c.RetryBackoff(); err != nil {
		return err
	}
	_, err := c.TimelineSettings()
	return err
}

// TimelineSettings converts the timeline section into the engine configuration.
// Every error wraps entities.ErrConfiguration.
func (c *Config) TimelineSettings() (entities.TimelineConfig, error) {
	t := c.Timeline

	cost, err := decimal.NewFromString(strings.TrimSpace(t.EnrichmentCreditCost))
	if err != nil {
		return entities.TimelineConfig{}, fmt.Errorf("%w: invalid timeline.enrichment_credit_cost %q", entities.ErrConfiguration, t.EnrichmentCreditCost)
	}
	timeout, err := time.ParseDuration(t.EnrichmentTimeout)
	if err != nil {
		return entities.TimelineConfig{}, fmt.Errorf("%w: invalid timeline.enrichment_timeout %q", entities.ErrConfiguration, t.EnrichmentTimeout)
	}

	settings := entities.TimelineConfig{
		EnrichmentThreshold:  t.EnrichmentThreshold,
		RelatedThreshold:     t.RelatedThreshold,
		DateProximityDays:    t.DateProximityDays,
		EnrichmentCreditCost: cost,
		Model:                c.LLM.Model,
		MaxEnrichmentRetries: t.MaxEnrichmentRetries,
		EnrichmentTimeout:    timeout,
		PromptVariant:        entities.PromptVariant(strings.ToLower(strings.TrimSpace(t.PromptVariant))),
		MaxInputLength:       t.MaxInputLength,
	}
	if err := settings.Validate(); err != nil {
		return entities.TimelineConfig{}, err
	}
	return settings, nil
}

// RetryBackoff returns the base delay between enrichment attempts.
func (c *Config) RetryBackoff() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeline.RetryBackoff)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: invalid timeline.retry_backoff %q", entities.ErrConfiguration, c.Timeline.RetryBackoff)
	}
	return d, nil
}

// Location returns the time zone applied to observation dates without an offset.
func (c *Config) Location() (*time.Location, error) {
	if c.Ingest.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Ingest.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest.time_zone %q: %w", c.Ingest.TimeZone, err)
	}
	return loc, nil
}

// ShutdownTimeout returns the graceful shutdown window of the HTTP server.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid server.shutdown_timeout %q", c.Server.ShutdownTimeout)
	}
	return d, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SQLitePath returns the database path, resolved against basePath when relative.
func (c *Config) SQLitePath(basePath string) string {
	if filepath.IsAbs(c.SQLite.Path) || c.SQLite.Path == ":memory:" {
		return c.SQLite.Path
	}
	return filepath.Join(basePath, c.SQLite.Path)
}

// ConfigDir returns the path to the .jurisflow config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a jurisflow config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
