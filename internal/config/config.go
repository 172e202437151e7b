// Package config loads and validates the Fathom configuration from YAML,
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Vector providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config is the complete Fathom configuration.
type Config struct {
	// DataDir is where indexes and the metadata database live.
	DataDir string        `yaml:"data_dir"`
	Search  SearchConfig  `yaml:"search"`
	Vector  VectorConfig  `yaml:"vector"`
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig tunes hybrid search behavior.
type SearchConfig struct {
	// MaxResults is the default result cap per search.
	MaxResults int `yaml:"max_results"`
	// MinScore drops merged results below this hybrid score.
	MinScore float64 `yaml:"min_score"`
	// VectorWeight and KeywordWeight fix the merge weights. When both are
	// zero, weights adapt to the query shape.
	VectorWeight  float64 `yaml:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight"`
	// DiversityBoost is the re-ranking penalty per same-source pick.
	DiversityBoost float64 `yaml:"diversity_boost"`
}

// VectorConfig configures the optional semantic search path.
type VectorConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`
	// OpenAIKey is read from FATHOM_OPENAI_API_KEY, never from the file.
	OpenAIKey string `yaml:"-"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file_path"`
	Stderr   bool   `yaml:"stderr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Search: SearchConfig{
			MaxResults:     10,
			MinScore:       0.1,
			DiversityBoost: 0.05,
		},
		Vector: VectorConfig{
			Enabled:    false,
			Provider:   ProviderOllama,
			OllamaHost: "http://localhost:11434",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "fathom")
	}
	return filepath.Join(home, ".fathom")
}

// Load reads the configuration from path, falling back to defaults when the
// file does not exist, then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides applies FATHOM_* environment variables, which take
// precedence over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FATHOM_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FATHOM_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("FATHOM_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.MinScore = f
		}
	}
	if v := os.Getenv("FATHOM_VECTOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Vector.Enabled = b
		}
	}
	if v := os.Getenv("FATHOM_VECTOR_PROVIDER"); v != "" {
		c.Vector.Provider = v
	}
	if v := os.Getenv("FATHOM_OLLAMA_HOST"); v != "" {
		c.Vector.OllamaHost = v
	}
	if v := os.Getenv("FATHOM_OPENAI_API_KEY"); v != "" {
		c.Vector.OpenAIKey = v
	}
	if v := os.Getenv("FATHOM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return fmt.Errorf("search.min_score must be in [0,1], got %g", c.Search.MinScore)
	}
	if c.Search.VectorWeight < 0 || c.Search.KeywordWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	sum := c.Search.VectorWeight + c.Search.KeywordWeight
	if sum > 0 && (sum < 0.999 || sum > 1.001) {
		return fmt.Errorf("search weights must sum to 1.0, got %g", sum)
	}
	if c.Search.DiversityBoost < 0 {
		return fmt.Errorf("search.diversity_boost must be non-negative, got %g", c.Search.DiversityBoost)
	}

	if c.Vector.Enabled {
		switch c.Vector.Provider {
		case ProviderOllama, ProviderOpenAI:
		default:
			return fmt.Errorf("unknown vector provider %q", c.Vector.Provider)
		}
		if c.Vector.Provider == ProviderOpenAI && c.Vector.OpenAIKey == "" {
			return fmt.Errorf("FATHOM_OPENAI_API_KEY is required for the openai provider")
		}
	}
	return nil
}

// IndexDir returns where the lexical index lives.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "index")
}

// VectorPath returns the vector store file path.
func (c *Config) VectorPath() string {
	return filepath.Join(c.DataDir, "vectors.hnsw")
}
