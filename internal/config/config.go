// Package config loads the application configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Selection  SelectionConfig  `yaml:"selection"`
	Quality    QualityConfig    `yaml:"quality"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

// GenerationConfig holds pipeline parameters.
type GenerationConfig struct {
	TopK            int `yaml:"top_k"`
	SectionCount    int `yaml:"section_count"`
	Workers         int `yaml:"workers"`
	MinSectionWords int `yaml:"min_section_words"`
	MinWordCount    int `yaml:"min_word_count"`
}

// SelectionConfig holds the passage selection weights.
type SelectionConfig struct {
	RelevanceWeight float64 `yaml:"relevance_weight"`
	DiversityWeight float64 `yaml:"diversity_weight"`
	SectionBonus    float64 `yaml:"section_bonus"`
	PerSourceCap    int     `yaml:"per_source_cap"`
}

// QualityConfig holds scoring and repair thresholds.
type QualityConfig struct {
	Threshold      float64 `yaml:"threshold"`
	DimensionFloor float64 `yaml:"dimension_floor"`
	DensityLow     float64 `yaml:"density_low"`
	DensityHigh    float64 `yaml:"density_high"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	RPS         float64 `yaml:"rps"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// MilvusConfig holds vector store connection settings.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// CatalogConfig holds the passage catalog location.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// defaultLocations are checked in order when no path is given.
var defaultLocations = []string{
	"tahrir.yaml",
	"tahrir.yml",
	filepath.Join("config", "tahrir.yaml"),
}

// Load reads the configuration from path, or from the first default
// location that exists when path is empty. A missing file yields defaults.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		for _, loc := range defaultLocations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv merges environment overrides into the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("MILVUS_ADDRESS"); v != "" {
		c.Milvus.Address = v
	}
	if v := os.Getenv("MILVUS_COLLECTION"); v != "" {
		c.Milvus.Collection = v
	}
	if v := os.Getenv("TAHRIR_CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("TAHRIR_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("TAHRIR_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("TAHRIR_EMBEDDING_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embedding.Dimension = n
		}
	}
}

// applyDefaults fills unset fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.Generation.TopK == 0 {
		c.Generation.TopK = 12
	}
	if c.Generation.SectionCount == 0 {
		c.Generation.SectionCount = 10
	}
	if c.Generation.Workers == 0 {
		c.Generation.Workers = 3
	}
	if c.Generation.MinSectionWords == 0 {
		c.Generation.MinSectionWords = 150
	}
	if c.Generation.MinWordCount == 0 {
		c.Generation.MinWordCount = 1500
	}
	if c.Selection.RelevanceWeight == 0 {
		c.Selection.RelevanceWeight = 0.7
	}
	if c.Selection.DiversityWeight == 0 {
		c.Selection.DiversityWeight = 0.3
	}
	if c.Selection.SectionBonus == 0 {
		c.Selection.SectionBonus = 0.15
	}
	if c.Selection.PerSourceCap == 0 {
		c.Selection.PerSourceCap = 4
	}
	if c.Quality.Threshold == 0 {
		c.Quality.Threshold = 0.8
	}
	if c.Quality.DimensionFloor == 0 {
		c.Quality.DimensionFloor = 0.7
	}
	if c.Quality.DensityLow == 0 {
		c.Quality.DensityLow = 0.5
	}
	if c.Quality.DensityHigh == 0 {
		c.Quality.DensityHigh = 3.0
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1500
	}
	if c.LLM.RPS == 0 {
		c.LLM.RPS = 2
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-large"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 3072
	}
	if c.Milvus.Address == "" {
		c.Milvus.Address = "localhost:19530"
	}
	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "tahrir_passages"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "tahrir.db"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Generation.TopK < 1 {
		errs = append(errs, ValidationError{"generation.top_k", "must be at least 1"})
	}
	if c.Generation.SectionCount < 1 {
		errs = append(errs, ValidationError{"generation.section_count", "must be at least 1"})
	}
	if c.Generation.Workers < 1 {
		errs = append(errs, ValidationError{"generation.workers", "must be at least 1"})
	}
	if c.Selection.RelevanceWeight < 0 || c.Selection.DiversityWeight < 0 {
		errs = append(errs, ValidationError{"selection", "weights must be non-negative"})
	}
	if c.Quality.Threshold <= 0 || c.Quality.Threshold > 1 {
		errs = append(errs, ValidationError{"quality.threshold", "must be in (0, 1]"})
	}
	if c.Quality.DensityLow <= 0 || c.Quality.DensityHigh <= c.Quality.DensityLow {
		errs = append(errs, ValidationError{"quality.density_low", "band must satisfy 0 < low < high"})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{"llm.temperature", "must be between 0 and 2"})
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, ValidationError{"llm.max_tokens", "must be at least 1"})
	}
	if c.LLM.RPS <= 0 {
		errs = append(errs, ValidationError{"llm.rps", "must be positive"})
	}
	if c.Embedding.Dimension < 1 {
		errs = append(errs, ValidationError{"embedding.dimension", "must be at least 1"})
	}
	if c.Milvus.Address == "" {
		errs = append(errs, ValidationError{"milvus.address", "cannot be empty"})
	}
	if c.Catalog.Path == "" {
		errs = append(errs, ValidationError{"catalog.path", "cannot be empty"})
	}

	return errs
}
