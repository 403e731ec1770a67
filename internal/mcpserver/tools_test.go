package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewell/rre/engine"
	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/config"
	"github.com/codewell/rre/internal/git"
)

// osFS is a minimal collab.FileSystem backed by the real filesystem,
// mirroring engine_test.go's stub so an *engine.Engine can be warmed
// against a real temp-dir workspace without a live fsnotify watch.
type osFS struct{}

func (osFS) List(ctx context.Context, dir string) ([]collab.DirEntry, error) { return nil, nil }
func (osFS) ReadFile(ctx context.Context, path string) ([]byte, error)       { return os.ReadFile(path) }
func (osFS) Stat(ctx context.Context, path string) (collab.DirEntry, error) {
	return collab.DirEntry{}, nil
}
func (osFS) Watch(ctx context.Context, root string, excludeGlobs []string) (<-chan collab.FileEvent, error) {
	return make(chan collab.FileEvent), nil
}
func (osFS) MkdirAll(ctx context.Context, path string) error               { return nil }
func (osFS) WriteFile(ctx context.Context, path string, data []byte) error { return nil }

func newTestEngine(t *testing.T, root string) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{Code: []string{"**/*.go"}}
	cfg.Index.AST = false
	cfg.Indexer.CPUBudget = 0

	e := engine.New(cfg, engine.Dependencies{FS: osFS{}, Git: git.NewMockGitOps()})
	t.Cleanup(e.Shutdown)
	return e
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func callToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleQuery_ReturnsResultsForIndexedIdentifier(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "widget.go", "package main\n\nfunc WidgetFactory() int { return 1 }\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	handler := handleQuery(e)
	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"query": "WidgetFactory",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := textContent(t, result)
	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))

	assert.Equal(t, "WidgetFactory", resp.Query)
	require.NotEmpty(t, resp.Results)
	assert.Contains(t, resp.Results[0], "widget.go")
}

func TestHandleQuery_MissingQueryParamReturnsError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	handler := handleQuery(e)
	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleQuery_RespectsLimitParam(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n\nfunc Foo() {}\n")
	writeFile(t, root, "b.go", "package main\n\nfunc FooBar() {}\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	handler := handleQuery(e)
	result, err := handler(context.Background(), callToolRequest(map[string]interface{}{
		"query": "Foo",
		"limit": float64(1),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &resp))
	assert.LessOrEqual(t, len(resp.Results), 1)
}

func TestHandleWarmIndex_WarmsAndReportsReady(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	e := newTestEngine(t, root)

	handler := handleWarmIndex(e, root)
	result, err := handler(context.Background(), callToolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, textContent(t, result), "ready")

	results := e.Query(context.Background(), "main", 5)
	assert.NotEmpty(t, results)
}

func TestHandleRebuildIndex_RebuildsAndReportsRebuilt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.WarmIndex(context.Background(), root))

	writeFile(t, root, "added.go", "package main\n\nfunc added() {}\n")

	handler := handleRebuildIndex(e)
	result, err := handler(context.Background(), callToolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, textContent(t, result), "rebuilt")

	results := e.Query(context.Background(), "added", 5)
	assert.NotEmpty(t, results)
}

// textContent extracts the text of a CallToolResult's first content
// item, the shape every handler in this package returns via
// mcp.NewToolResultText/NewToolResultError.
func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "expected text content")
	return tc.Text
}
