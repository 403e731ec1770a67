package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (RRE_*)
// 2. Config file (.rre/config.yml or .rre/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".rre")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("RRE")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., RRE_INDEXER_CPU_BUDGET)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("indexer.cpu_budget")
	v.BindEnv("indexer.parallelism")
	v.BindEnv("router.cache_ttl_ms")
	v.BindEnv("rag.vector_store")
	v.BindEnv("index.ast")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("indexer.cpu_budget", d.Indexer.CPUBudget)
	v.SetDefault("indexer.parallelism", d.Indexer.Parallelism)

	v.SetDefault("router.cache_ttl_ms", d.Router.CacheTTLMs)

	v.SetDefault("rag.vector_store", d.RAG.VectorStore)

	v.SetDefault("index.ast", d.Index.AST)

	v.SetDefault("paths.code", d.Paths.Code)
	v.SetDefault("paths.docs", d.Paths.Docs)
	v.SetDefault("paths.ignore", d.Paths.Ignore)

	v.SetDefault("chunking.overview_snippet_chars", d.Chunking.OverviewSnippetChars)
	v.SetDefault("chunking.default_snippet_chars", d.Chunking.DefaultSnippetChars)
	v.SetDefault("chunking.overview_chunk_count", d.Chunking.OverviewChunkCount)
	v.SetDefault("chunking.overview_chunk_chars", d.Chunking.OverviewChunkChars)
	v.SetDefault("chunking.default_chunk_count", d.Chunking.DefaultChunkCount)
	v.SetDefault("chunking.default_chunk_chars", d.Chunking.DefaultChunkChars)
	v.SetDefault("chunking.overlap_chars", d.Chunking.OverlapChars)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
