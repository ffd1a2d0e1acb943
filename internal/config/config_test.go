package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "apisearch.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Search.IndexTTL)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.InDelta(t, 0.7, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.FuzzyWeight, 1e-9)
	assert.InDelta(t, 0.5, cfg.Search.VectorThreshold, 1e-9)
	assert.Equal(t, "linear", cfg.Search.VectorStore)
	assert.Equal(t, "auto", cfg.Embedding.Provider)
	assert.Equal(t, []string{"nomic-embed-text", "mxbai-embed-large", "all-minilm"}, cfg.Embedding.Models)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, ":3200", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
database:
  path: /tmp/catalog.db
search:
  index_ttl: 30s
  vector_weight: 0.6
  fuzzy_weight: 0.4
  vector_store: hnsw
embedding:
  provider: lexical
  dimensions: 128
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/catalog.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Search.IndexTTL)
	assert.InDelta(t, 0.6, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.4, cfg.Search.FuzzyWeight, 1e-9)
	assert.Equal(t, "hnsw", cfg.Search.VectorStore)
	assert.Equal(t, "lexical", cfg.Embedding.Provider)
	assert.Equal(t, 128, cfg.Embedding.Dimensions)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unspecified fields keep defaults.
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, ":3200", cfg.HTTP.Addr)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))

	t.Setenv("APISEARCH_LOG_LEVEL", "error")
	t.Setenv("APISEARCH_DB_PATH", "/data/env.db")
	t.Setenv("APISEARCH_VECTOR_WEIGHT", "0.9")
	t.Setenv("APISEARCH_INDEX_TTL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "/data/env.db", cfg.Database.Path)
	assert.InDelta(t, 0.9, cfg.Search.VectorWeight, 1e-9)
	assert.Equal(t, time.Minute, cfg.Search.IndexTTL)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"vector weight above one", func(c *Config) { c.Search.VectorWeight = 1.5 }},
		{"negative fuzzy weight", func(c *Config) { c.Search.FuzzyWeight = -0.1 }},
		{"threshold out of range", func(c *Config) { c.Search.VectorThreshold = 2 }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "openai" }},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown vector store", func(c *Config) { c.Search.VectorStore = "faiss" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := NewConfig()
	cfg.Search.VectorWeight = 0.55
	cfg.Search.FuzzyWeight = 0.45
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.55, loaded.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.45, loaded.Search.FuzzyWeight, 1e-9)
}
