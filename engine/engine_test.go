package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/config"
	"github.com/codewell/rre/internal/git"
)

// osFS is a minimal collab.FileSystem backed by the real filesystem,
// with Watch stubbed to a channel that never delivers an event so
// tests never depend on a live fsnotify watch.
type osFS struct{}

func (osFS) List(ctx context.Context, dir string) ([]collab.DirEntry, error) { return nil, nil }
func (osFS) ReadFile(ctx context.Context, path string) ([]byte, error)       { return os.ReadFile(path) }
func (osFS) Stat(ctx context.Context, path string) (collab.DirEntry, error) {
	return collab.DirEntry{}, nil
}
func (osFS) Watch(ctx context.Context, root string, excludeGlobs []string) (<-chan collab.FileEvent, error) {
	ch := make(chan collab.FileEvent)
	return ch, nil
}
func (osFS) MkdirAll(ctx context.Context, path string) error              { return nil }
func (osFS) WriteFile(ctx context.Context, path string, data []byte) error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		Code: []string{"**/*.go"},
		Docs: []string{"**/*.md"},
	}
	cfg.Index.AST = false
	cfg.Indexer.CPUBudget = 0
	return cfg
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	deps := Dependencies{
		FS:  osFS{},
		Git: git.NewMockGitOps(),
	}
	e := New(testConfig(), deps)
	t.Cleanup(e.Shutdown)
	return e
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWarmIndex_ProgressiveIndexesFreshWorkspace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "helper.go", "package main\n\nfunc helper() int { return 42 }\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	assert.Equal(t, 2, e.store.Len())
}

func TestWarmIndex_ReloadsFromPrimarySnapshotOnSecondRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	first := newTestEngine(t, root)
	require.NoError(t, first.WarmIndex(context.Background(), root))
	first.persistDebounce.Flush()

	indexPath := filepath.Join(root, ".rre", "index.json")
	_, err := os.Stat(indexPath)
	require.NoError(t, err, "expected a primary snapshot to have been saved")

	second := newTestEngine(t, root)
	require.NoError(t, second.WarmIndex(context.Background(), root))

	assert.Equal(t, 1, second.store.Len())
	_, ok := second.store.Lookup("main.go")
	assert.True(t, ok)
}

func TestWarmIndex_MigratesLegacyIndexFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	first := newTestEngine(t, root)
	require.NoError(t, first.WarmIndex(context.Background(), root))
	first.persistDebounce.Flush()

	primaryPath := filepath.Join(root, ".rre", "index.json")
	data, err := os.ReadFile(primaryPath)
	require.NoError(t, err)
	require.NoError(t, os.Remove(primaryPath))
	// Also clear the branch snapshot cache populated by the first
	// engine's save, so the second engine's warm-up can't satisfy
	// itself from the snapshot and actually exercises the legacy-path
	// fallback below.
	require.NoError(t, os.RemoveAll(filepath.Join(root, ".rre", "branches")))

	legacyPath := filepath.Join(root, ".rre-index.json")
	require.NoError(t, os.WriteFile(legacyPath, data, 0o644))

	second := newTestEngine(t, root)
	require.NoError(t, second.WarmIndex(context.Background(), root))

	assert.Equal(t, 1, second.store.Len())
	_, ok := second.store.Lookup("main.go")
	assert.True(t, ok)

	_, err = os.Stat(primaryPath)
	assert.NoError(t, err, "expected the legacy index to be rewritten at the primary path")
	_, err = os.Stat(legacyPath)
	assert.True(t, os.IsNotExist(err), "expected the legacy index file to be removed after migration")
}

func TestQuery_FindsIndexedFileByIdentifier(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "widget.go", "package main\n\nfunc WidgetFactory() int { return 1 }\n")
	writeFile(t, root, "other.go", "package main\n\nfunc unrelated() int { return 2 }\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	results := e.Query(context.Background(), "WidgetFactory", 5)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0], "widget.go")
}

func TestQueryWithMetrics_ReturnsPopulatedMetrics(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	resp := e.QueryWithMetrics(context.Background(), "main", 5)
	assert.GreaterOrEqual(t, resp.Metrics.RetrievalLatencyMs, float64(0))
}

func TestQuery_ZeroKReturnsNoResults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	assert.Empty(t, e.Query(context.Background(), "main", 0))
}

func TestRebuildIndex_RebuildsFromScratchAndResetsHalt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	writeFile(t, root, "added.go", "package main\n\nfunc added() {}\n")
	require.NoError(t, e.RebuildIndex(context.Background()))

	assert.Equal(t, 2, e.store.Len())
	assert.False(t, e.halted())
}

func TestRebuildIndex_SwapsFrontendWithoutLosingQueryability(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	before := e.currentFrontend()
	require.NoError(t, e.RebuildIndex(context.Background()))
	after := e.currentFrontend()

	assert.NotSame(t, before, after)
	results := e.Query(context.Background(), "main", 5)
	assert.NotEmpty(t, results)
}

func TestCheckMemoryPressure_BelowThresholdsLeavesEngineUnhalted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e := newTestEngine(t, root)
	e.root = root
	e.checkMemoryPressure()

	assert.False(t, e.halted())
}

func TestShutdown_IsSafeWithoutWarmIndex(t *testing.T) {
	t.Parallel()

	e := New(testConfig(), Dependencies{FS: osFS{}, Git: git.NewMockGitOps()})
	assert.NotPanics(t, func() { e.Shutdown() })
}
