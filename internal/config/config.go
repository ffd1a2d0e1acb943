// Package config loads the apisearch configuration with layered
// precedence: hardcoded defaults, then a YAML file, then APISEARCH_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete apisearch configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// DatabaseConfig configures the read-only entity storage.
type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path" json:"path"`
}

// SearchConfig configures index lifetime and hybrid fusion parameters.
type SearchConfig struct {
	// IndexTTL is how long a built snapshot is served before it is
	// considered stale and rebuilt on the next request.
	IndexTTL time.Duration `yaml:"index_ttl" json:"index_ttl"`

	// DefaultLimit is the result count when a caller omits limit.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// VectorWeight is the weight applied to the vector similarity
	// component during hybrid fusion.
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`

	// FuzzyWeight is the weight applied to the fuzzy match component
	// during hybrid fusion.
	FuzzyWeight float64 `yaml:"fuzzy_weight" json:"fuzzy_weight"`

	// VectorThreshold is the minimum cosine similarity for vector
	// search hits.
	VectorThreshold float64 `yaml:"vector_threshold" json:"vector_threshold"`

	// VectorStore selects the vector index implementation: "linear"
	// scans exhaustively, "hnsw" builds a graph index for larger
	// catalogs.
	VectorStore string `yaml:"vector_store" json:"vector_store"`
}

// EmbeddingConfig configures the embedding encoder.
type EmbeddingConfig struct {
	// Provider selects the encoder: "auto", "ollama", or "lexical".
	// Auto tries the neural encoder once, then falls back.
	Provider string `yaml:"provider" json:"provider"`

	// Endpoint is the Ollama API endpoint.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Models is the ordered candidate model list tried at startup.
	Models []string `yaml:"models" json:"models"`

	// Dimensions is the lexical fallback vector dimensionality.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// CacheSize is the embedding LRU cache capacity.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// MaxAttempts bounds retries per candidate model during init.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// RequestTimeout bounds a single embedding HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// HTTPConfig configures the companion HTTP surface.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Dir is the log directory; empty means stderr only.
	Dir string `yaml:"dir" json:"dir"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "apisearch.db",
		},
		Search: SearchConfig{
			IndexTTL:        5 * time.Minute,
			DefaultLimit:    10,
			VectorWeight:    0.7,
			FuzzyWeight:     0.3,
			VectorThreshold: 0.5,
			VectorStore:     "linear",
		},
		Embedding: EmbeddingConfig{
			Provider:       "auto",
			Endpoint:       "http://localhost:11434",
			Models:         []string{"nomic-embed-text", "mxbai-embed-large", "all-minilm"},
			Dimensions:     384,
			CacheSize:      1000,
			MaxAttempts:    2,
			RequestTimeout: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":3200",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// Load loads configuration with increasing precedence:
//  1. Hardcoded defaults
//  2. YAML file at path (missing file is fine when path is empty)
//  3. APISEARCH_* environment variables
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}

	if other.Search.IndexTTL != 0 {
		c.Search.IndexTTL = other.Search.IndexTTL
	}
	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	// Zero is not a practical weight, so only merge non-zero values.
	if other.Search.VectorWeight != 0 {
		c.Search.VectorWeight = other.Search.VectorWeight
	}
	if other.Search.FuzzyWeight != 0 {
		c.Search.FuzzyWeight = other.Search.FuzzyWeight
	}
	if other.Search.VectorThreshold != 0 {
		c.Search.VectorThreshold = other.Search.VectorThreshold
	}
	if other.Search.VectorStore != "" {
		c.Search.VectorStore = other.Search.VectorStore
	}

	if other.Embedding.Provider != "" {
		c.Embedding.Provider = other.Embedding.Provider
	}
	if other.Embedding.Endpoint != "" {
		c.Embedding.Endpoint = other.Embedding.Endpoint
	}
	if len(other.Embedding.Models) > 0 {
		c.Embedding.Models = other.Embedding.Models
	}
	if other.Embedding.Dimensions != 0 {
		c.Embedding.Dimensions = other.Embedding.Dimensions
	}
	if other.Embedding.CacheSize != 0 {
		c.Embedding.CacheSize = other.Embedding.CacheSize
	}
	if other.Embedding.MaxAttempts != 0 {
		c.Embedding.MaxAttempts = other.Embedding.MaxAttempts
	}
	if other.Embedding.RequestTimeout != 0 {
		c.Embedding.RequestTimeout = other.Embedding.RequestTimeout
	}

	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Dir != "" {
		c.Logging.Dir = other.Logging.Dir
	}
}

// applyEnvOverrides applies APISEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APISEARCH_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("APISEARCH_EMBED_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("APISEARCH_EMBED_ENDPOINT"); v != "" {
		c.Embedding.Endpoint = v
	}
	if v := os.Getenv("APISEARCH_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("APISEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("APISEARCH_INDEX_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			c.Search.IndexTTL = ttl
		}
	}
	if v := os.Getenv("APISEARCH_VECTOR_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.VectorWeight = w
		}
	}
	if v := os.Getenv("APISEARCH_VECTOR_STORE"); v != "" {
		c.Search.VectorStore = v
	}
	if v := os.Getenv("APISEARCH_FUZZY_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.FuzzyWeight = w
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 {
		return fmt.Errorf("vector_weight must be between 0 and 1, got %f", c.Search.VectorWeight)
	}
	if c.Search.FuzzyWeight < 0 || c.Search.FuzzyWeight > 1 {
		return fmt.Errorf("fuzzy_weight must be between 0 and 1, got %f", c.Search.FuzzyWeight)
	}
	if c.Search.VectorThreshold < -1 || c.Search.VectorThreshold > 1 {
		return fmt.Errorf("vector_threshold must be between -1 and 1, got %f", c.Search.VectorThreshold)
	}
	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("default_limit must be non-negative, got %d", c.Search.DefaultLimit)
	}
	if c.Search.IndexTTL < 0 {
		return fmt.Errorf("index_ttl must be non-negative, got %s", c.Search.IndexTTL)
	}
	if c.Search.VectorStore != "" {
		switch strings.ToLower(c.Search.VectorStore) {
		case "linear", "hnsw":
		default:
			return fmt.Errorf("search.vector_store must be 'linear' or 'hnsw', got %s", c.Search.VectorStore)
		}
	}

	if c.Embedding.Provider != "" {
		validProviders := map[string]bool{"auto": true, "ollama": true, "lexical": true}
		if !validProviders[strings.ToLower(c.Embedding.Provider)] {
			return fmt.Errorf("embedding.provider must be 'auto', 'ollama', or 'lexical', got %s", c.Embedding.Provider)
		}
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.MaxAttempts <= 0 {
		return fmt.Errorf("embedding.max_attempts must be positive, got %d", c.Embedding.MaxAttempts)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
