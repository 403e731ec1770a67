package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, 0.2, cfg.Indexer.CPUBudget)
	assert.Equal(t, "none", cfg.RAG.VectorStore)
	assert.True(t, cfg.Index.AST)
}

func TestValidate_RejectsOutOfRangeCPUBudget(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Indexer.CPUBudget = 1.5
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCPUBudget)
}

func TestValidate_RejectsUnknownVectorStore(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.RAG.VectorStore = "pinecone"
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVectorStore)
}

func TestValidate_RejectsOverlapTooLarge(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Chunking.OverlapChars = cfg.Chunking.DefaultChunkChars
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestLoader_DefaultsWithoutConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Indexer.CPUBudget, cfg.Indexer.CPUBudget)
}

func TestLoader_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".rre"), 0755))
	content := []byte("indexer:\n  cpu_budget: 0.5\n  parallelism: 4\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rre", "config.yml"), content, 0644))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Indexer.CPUBudget)
	assert.Equal(t, 4, cfg.Indexer.Parallelism)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".rre"), 0755))
	content := []byte("indexer:\n  cpu_budget: 0.5\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rre", "config.yml"), content, 0644))

	t.Setenv("RRE_INDEXER_CPU_BUDGET", "0.9")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Indexer.CPUBudget)
}
