package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/searchd/internal/logging"
)

// Config is the root configuration for searchd.
type Config struct {
	Logging    logging.Config   `koanf:"logging"`
	Backend    BackendConfig    `koanf:"backend"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Search     SearchConfig     `koanf:"search"`
	Conflict   ConflictConfig   `koanf:"conflict"`
}

// BackendConfig selects and configures the document backend.
type BackendConfig struct {
	// Driver selects the backend implementation: "qdrant" or "chromem".
	Driver string `koanf:"driver"`

	// Collection is the collection searched by default.
	Collection string `koanf:"collection"`

	// Qdrant gRPC settings (ignored for chromem).
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	UseTLS  bool          `koanf:"use_tls"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// Path is the on-disk location for the chromem driver. Empty means
	// in-memory.
	Path string `koanf:"path"`
}

// ApplyDefaults sets default values for unset fields.
func (c *BackendConfig) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "qdrant"
	}
	if c.Collection == "" {
		c.Collection = "documents"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	switch c.Driver {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("unknown backend driver %q (must be qdrant or chromem)", c.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	return nil
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// BaseURL is the OpenAI-compatible endpoint (TEI or OpenAI).
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// APIKey authenticates against the endpoint; optional for TEI.
	APIKey string `koanf:"api_key"`
}

// ApplyDefaults sets default values for unset fields.
func (c *EmbeddingsConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.Model == "" {
		c.Model = "BAAI/bge-small-en-v1.5"
	}
}

// SearchConfig holds the default hybrid search parameters. Intent
// classification overrides these per request; this is the baseline.
type SearchConfig struct {
	VectorWeight    float64       `koanf:"vector_weight"`
	KeywordWeight   float64       `koanf:"keyword_weight"`
	MinScore        float64       `koanf:"min_score"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheCapacity   int           `koanf:"cache_capacity"`
	MaxCandidates   int           `koanf:"max_candidates"`
	OverFetchFactor int           `koanf:"over_fetch_factor"`
}

// ApplyDefaults sets default values for unset fields.
func (c *SearchConfig) ApplyDefaults() {
	if c.VectorWeight == 0 {
		c.VectorWeight = 0.6
	}
	if c.KeywordWeight == 0 {
		c.KeywordWeight = 0.3
	}
	if c.MinScore == 0 {
		c.MinScore = 0.3
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.CacheCapacity == 0 {
		c.CacheCapacity = 100
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = 2000
	}
	if c.OverFetchFactor == 0 {
		c.OverFetchFactor = 5
	}
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.VectorWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score must be in [0,1], got %v", c.MinScore)
	}
	return nil
}

// ConflictConfig configures conflict detection. Unlike the other sections,
// invalid values never fail validation: each bad field is coerced to its
// default and reported in one aggregated warning, so a malformed config
// can never take conflict detection down.
type ConflictConfig struct {
	MaxPairsTotal    int           `koanf:"max_pairs_total"`
	MaxPairsPerTier  int           `koanf:"max_pairs_per_tier"`
	MaxLLMPairs      int           `koanf:"max_llm_pairs"`
	CallTimeout      time.Duration `koanf:"call_timeout"`
	OverallTimeout   time.Duration `koanf:"overall_timeout"`
	Model            string        `koanf:"model"`
	UseLLM           bool          `koanf:"use_llm"`
	LLMRatePerSecond float64       `koanf:"llm_rate_per_second"`
}

// DefaultConflictConfig returns the safe defaults every invalid field is
// coerced to.
func DefaultConflictConfig() ConflictConfig {
	return ConflictConfig{
		MaxPairsTotal:    120,
		MaxPairsPerTier:  60,
		MaxLLMPairs:      8,
		CallTimeout:      10 * time.Second,
		OverallTimeout:   45 * time.Second,
		Model:            "gpt-4o-mini",
		UseLLM:           false,
		LLMRatePerSecond: 2,
	}
}

// Sanitize coerces out-of-range fields to defaults and returns a single
// warning string naming every coerced field, or "" if nothing changed.
func (c *ConflictConfig) Sanitize() string {
	def := DefaultConflictConfig()
	var coerced []string

	if c.MaxPairsTotal <= 0 {
		c.MaxPairsTotal = def.MaxPairsTotal
		coerced = append(coerced, "max_pairs_total")
	}
	if c.MaxPairsPerTier <= 0 {
		c.MaxPairsPerTier = def.MaxPairsPerTier
		coerced = append(coerced, "max_pairs_per_tier")
	}
	if c.MaxLLMPairs < 0 {
		c.MaxLLMPairs = def.MaxLLMPairs
		coerced = append(coerced, "max_llm_pairs")
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
		coerced = append(coerced, "call_timeout")
	}
	if c.OverallTimeout <= 0 {
		c.OverallTimeout = def.OverallTimeout
		coerced = append(coerced, "overall_timeout")
	}
	if c.OverallTimeout < c.CallTimeout {
		c.OverallTimeout = def.OverallTimeout
		c.CallTimeout = def.CallTimeout
		coerced = append(coerced, "overall_timeout<call_timeout")
	}
	if c.Model == "" {
		c.Model = def.Model
		coerced = append(coerced, "model")
	}
	if c.LLMRatePerSecond <= 0 {
		c.LLMRatePerSecond = def.LLMRatePerSecond
		coerced = append(coerced, "llm_rate_per_second")
	}

	if len(coerced) == 0 {
		return ""
	}
	return fmt.Sprintf("conflict config fields coerced to defaults: %s", strings.Join(coerced, ", "))
}

// NewDefaultConfig returns a fully defaulted root config.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Logging:  *logging.NewDefaultConfig(),
		Conflict: DefaultConflictConfig(),
	}
	cfg.Backend.ApplyDefaults()
	cfg.Embeddings.ApplyDefaults()
	cfg.Search.ApplyDefaults()
	return cfg
}

// Validate validates all strict sections. The conflict section is not
// validated here; callers run Sanitize and log the warning.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}
