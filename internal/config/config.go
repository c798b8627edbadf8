// Package config loads and validates docrag configuration.
//
// Resolution order, later wins: built-in defaults, the YAML config file,
// DOCRAG_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the YAML file looked up inside the data directory.
const ConfigFileName = "config.yaml"

// Config is the complete docrag configuration.
type Config struct {
	// DataDir holds the document database, vector index, and logs.
	DataDir string `yaml:"data_dir"`

	Ollama  OllamaConfig  `yaml:"ollama"`
	Search  SearchConfig  `yaml:"search"`
	Chunk   ChunkConfig   `yaml:"chunk"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// OllamaConfig configures the Ollama backend.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`

	// EmbedModel is the embedding model. Empty means auto-discover.
	EmbedModel string `yaml:"embed_model"`

	// GenerateModel is the answer-generation model.
	GenerateModel string `yaml:"generate_model"`

	// EmbedBackend selects the embedder: auto, ollama, or static.
	EmbedBackend string `yaml:"embed_backend"`

	// Temperature for generation.
	Temperature float64 `yaml:"temperature"`
}

// SearchConfig configures hybrid search defaults.
type SearchConfig struct {
	// TopK is the default number of results.
	TopK int `yaml:"top_k"`

	// SemanticWeight blends semantic vs keyword scores, in [0,1].
	SemanticWeight float64 `yaml:"semantic_weight"`

	// MaxTokens is the context budget for answer generation.
	MaxTokens int `yaml:"max_tokens"`
}

// ChunkConfig configures document chunking.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	// Debounce is the window for coalescing file events.
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is the log file path. Empty means <data_dir>/docrag.log.
	File string `yaml:"file"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Ollama: OllamaConfig{
			Host:          "http://localhost:11434",
			GenerateModel: "mistral",
			EmbedBackend:  "auto",
			Temperature:   0.7,
		},
		Search: SearchConfig{
			TopK:           5,
			SemanticWeight: 0.7,
			MaxTokens:      2000,
		},
		Chunk: ChunkConfig{
			Size:    500,
			Overlap: 50,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultDataDir is ~/.docrag, falling back to a relative dir when the home
// directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docrag"
	}
	return filepath.Join(home, ".docrag")
}

// Load reads configuration from path. An empty path uses the default
// location; a missing file is not an error, defaults apply. Environment
// variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies DOCRAG_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCRAG_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DOCRAG_OLLAMA_HOST"); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv("DOCRAG_EMBED_MODEL"); v != "" {
		c.Ollama.EmbedModel = v
	}
	if v := os.Getenv("DOCRAG_GENERATE_MODEL"); v != "" {
		c.Ollama.GenerateModel = v
	}
	if v := os.Getenv("DOCRAG_EMBED_BACKEND"); v != "" {
		c.Ollama.EmbedBackend = v
	}
	if v := os.Getenv("DOCRAG_SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SemanticWeight = f
		}
	}
	if v := os.Getenv("DOCRAG_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("DOCRAG_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxTokens = n
		}
	}
	if v := os.Getenv("DOCRAG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("search.semantic_weight must be in [0,1], got %g", c.Search.SemanticWeight)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.MaxTokens <= 0 {
		return fmt.Errorf("search.max_tokens must be positive, got %d", c.Search.MaxTokens)
	}
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, chunk.size), got %d", c.Chunk.Overlap)
	}
	switch c.Ollama.EmbedBackend {
	case "auto", "ollama", "static":
	default:
		return fmt.Errorf("ollama.embed_backend must be auto, ollama, or static, got %q", c.Ollama.EmbedBackend)
	}
	return nil
}

// LogFile resolves the log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.DataDir, "docrag.log")
}

// DocumentDBPath is the SQLite document database location.
func (c *Config) DocumentDBPath() string {
	return filepath.Join(c.DataDir, "documents.db")
}

// VectorIndexPath is the HNSW index location.
func (c *Config) VectorIndexPath() string {
	return filepath.Join(c.DataDir, "vectors.hnsw")
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
