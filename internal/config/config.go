// Package config defines the Repository Retrieval Engine's configuration
// shape and loads it from .rre/config.yml with environment overrides.
package config

// Config is the complete engine configuration. It can be loaded from
// .rre/config.yml with RRE_-prefixed environment variable overrides.
type Config struct {
	Indexer  IndexerConfig  `yaml:"indexer" mapstructure:"indexer"`
	Router   RouterConfig   `yaml:"router" mapstructure:"router"`
	RAG      RAGConfig      `yaml:"rag" mapstructure:"rag"`
	Index    FeatureConfig  `yaml:"index" mapstructure:"index"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Chunking ChunkingConfig `yaml:"chunking" mapstructure:"chunking"`
}

// IndexerConfig governs the progressive indexer's resource budget (§4.7).
type IndexerConfig struct {
	CPUBudget   float64 `yaml:"cpu_budget" mapstructure:"cpu_budget"`   // fraction of one core, 0-1
	Parallelism int     `yaml:"parallelism" mapstructure:"parallelism"` // worker pool size for batch extraction
}

// RouterConfig governs the query front-end's cache behavior (§4.6).
type RouterConfig struct {
	CacheTTLMs int `yaml:"cache_ttl_ms" mapstructure:"cache_ttl_ms"` // query-result cache TTL setting; loaded and validated, but the query result cache uses the fixed query.ResultCacheTTL (30s) and does not read it
}

// RAGConfig selects the external vector store, if any (§6).
type RAGConfig struct {
	VectorStore string `yaml:"vector_store" mapstructure:"vector_store"` // "none", "chromem"
}

// FeatureConfig toggles optional collaborator usage.
type FeatureConfig struct {
	AST bool `yaml:"ast" mapstructure:"ast"` // whether to call the AST collaborator for symbols/chunks
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for code files
	Docs   []string `yaml:"docs" mapstructure:"docs"`     // glob patterns for documentation
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// ChunkingConfig defines the snippet/chunk budgets used by the extractor (§4.3).
type ChunkingConfig struct {
	OverviewSnippetChars int `yaml:"overview_snippet_chars" mapstructure:"overview_snippet_chars"`
	DefaultSnippetChars  int `yaml:"default_snippet_chars" mapstructure:"default_snippet_chars"`
	OverviewChunkCount   int `yaml:"overview_chunk_count" mapstructure:"overview_chunk_count"`
	OverviewChunkChars   int `yaml:"overview_chunk_chars" mapstructure:"overview_chunk_chars"`
	DefaultChunkCount    int `yaml:"default_chunk_count" mapstructure:"default_chunk_count"`
	DefaultChunkChars    int `yaml:"default_chunk_chars" mapstructure:"default_chunk_chars"`
	OverlapChars         int `yaml:"overlap_chars" mapstructure:"overlap_chars"`
}

// Default returns a configuration with sensible defaults matching §4.3/§4.7/§5.5.
func Default() *Config {
	return &Config{
		Indexer: IndexerConfig{
			CPUBudget:   0.2,
			Parallelism: 2,
		},
		Router: RouterConfig{
			CacheTTLMs: 60_000,
		},
		RAG: RAGConfig{
			VectorStore: "none",
		},
		Index: FeatureConfig{
			AST: true,
		},
		Paths: PathsConfig{
			Code: []string{
				"**/*.go",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.py",
				"**/*.rs",
				"**/*.c",
				"**/*.cpp",
				"**/*.h",
				"**/*.hpp",
				"**/*.php",
				"**/*.rb",
				"**/*.java",
			},
			Docs: []string{
				"**/*.md",
				"**/*.rst",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				"*.map",
				"*.d.ts",
			},
		},
		Chunking: ChunkingConfig{
			OverviewSnippetChars: 800,
			DefaultSnippetChars:  400,
			OverviewChunkCount:   3,
			OverviewChunkChars:   600,
			DefaultChunkCount:    5,
			DefaultChunkChars:    400,
			OverlapChars:         100,
		},
	}
}
