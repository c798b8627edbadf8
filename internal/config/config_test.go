package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
	assert.Equal(t, 2000, cfg.Search.MaxTokens)
	assert.Equal(t, 500, cfg.Chunk.Size)
	assert.Equal(t, 50, cfg.Chunk.Overlap)
	assert.Equal(t, "auto", cfg.Ollama.EmbedBackend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search.TopK, cfg.Search.TopK)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  top_k: 10
  semantic_weight: 0.5
  max_tokens: 1000
ollama:
  host: http://remote:11434
  embed_backend: static
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, "http://remote:11434", cfg.Ollama.Host)
	assert.Equal(t, "static", cfg.Ollama.EmbedBackend)
	// Untouched sections keep defaults
	assert.Equal(t, 500, cfg.Chunk.Size)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 10\n"), 0o644))

	t.Setenv("DOCRAG_TOP_K", "3")
	t.Setenv("DOCRAG_SEMANTIC_WEIGHT", "0.25")
	t.Setenv("DOCRAG_OLLAMA_HOST", "http://env:11434")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.Equal(t, 0.25, cfg.Search.SemanticWeight)
	assert.Equal(t, "http://env:11434", cfg.Ollama.Host)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weight above range", func(c *Config) { c.Search.SemanticWeight = 1.5 }},
		{"weight below range", func(c *Config) { c.Search.SemanticWeight = -0.1 }},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"zero max_tokens", func(c *Config) { c.Search.MaxTokens = 0 }},
		{"zero chunk size", func(c *Config) { c.Chunk.Size = 0 }},
		{"overlap >= size", func(c *Config) { c.Chunk.Overlap = c.Chunk.Size }},
		{"bad backend", func(c *Config) { c.Ollama.EmbedBackend = "gpu" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := Default()
	cfg.Search.TopK = 7
	cfg.Watch.Debounce = 2 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Search.TopK)
	assert.Equal(t, 2*time.Second, loaded.Watch.Debounce)
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"

	assert.Equal(t, filepath.Join("/data", "documents.db"), cfg.DocumentDBPath())
	assert.Equal(t, filepath.Join("/data", "vectors.hnsw"), cfg.VectorIndexPath())
	assert.Equal(t, filepath.Join("/data", "docrag.log"), cfg.LogFile())

	cfg.Logging.File = "/var/log/custom.log"
	assert.Equal(t, "/var/log/custom.log", cfg.LogFile())
}
