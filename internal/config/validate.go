package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCPUBudget indicates an out-of-range indexer CPU budget.
	ErrInvalidCPUBudget = errors.New("invalid indexer cpu budget")

	// ErrInvalidParallelism indicates a non-positive worker pool size.
	ErrInvalidParallelism = errors.New("invalid indexer parallelism")

	// ErrInvalidCacheTTL indicates a negative cache TTL.
	ErrInvalidCacheTTL = errors.New("invalid router cache ttl")

	// ErrInvalidVectorStore indicates an unrecognized rag.vector_store value.
	ErrInvalidVectorStore = errors.New("invalid vector store")

	// ErrInvalidChunkSize indicates a non-positive chunk/snippet size.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates a negative or too-large overlap.
	ErrInvalidOverlap = errors.New("invalid overlap")
)

// validVectorStores enumerates the rag.vector_store values the engine recognizes.
var validVectorStores = map[string]bool{
	"none":    true,
	"chromem": true,
}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateIndexer(&cfg.Indexer); err != nil {
		errs = append(errs, err)
	}
	if err := validateRouter(&cfg.Router); err != nil {
		errs = append(errs, err)
	}
	if err := validateRAG(&cfg.RAG); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateIndexer(cfg *IndexerConfig) error {
	var errs []error

	if cfg.CPUBudget <= 0 || cfg.CPUBudget > 1 {
		errs = append(errs, fmt.Errorf("%w: must be in (0, 1], got %v", ErrInvalidCPUBudget, cfg.CPUBudget))
	}
	if cfg.Parallelism <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidParallelism, cfg.Parallelism))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateRouter(cfg *RouterConfig) error {
	if cfg.CacheTTLMs < 0 {
		return fmt.Errorf("%w: must be non-negative, got %d", ErrInvalidCacheTTL, cfg.CacheTTLMs)
	}
	return nil
}

func validateRAG(cfg *RAGConfig) error {
	store := strings.ToLower(cfg.VectorStore)
	if !validVectorStores[store] {
		return fmt.Errorf("%w: got %q", ErrInvalidVectorStore, cfg.VectorStore)
	}
	return nil
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error

	sizes := map[string]int{
		"overview_snippet_chars": cfg.OverviewSnippetChars,
		"default_snippet_chars":  cfg.DefaultSnippetChars,
		"overview_chunk_count":   cfg.OverviewChunkCount,
		"overview_chunk_chars":   cfg.OverviewChunkChars,
		"default_chunk_count":    cfg.DefaultChunkCount,
		"default_chunk_chars":    cfg.DefaultChunkChars,
	}
	for name, v := range sizes {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidChunkSize, name, v))
		}
	}

	if cfg.OverlapChars < 0 {
		errs = append(errs, fmt.Errorf("%w: overlap_chars cannot be negative, got %d", ErrInvalidOverlap, cfg.OverlapChars))
	}
	if cfg.DefaultChunkChars > 0 && cfg.OverlapChars >= cfg.DefaultChunkChars {
		errs = append(errs, fmt.Errorf("%w: overlap_chars (%d) should be less than default_chunk_chars (%d)", ErrInvalidOverlap, cfg.OverlapChars, cfg.DefaultChunkChars))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
