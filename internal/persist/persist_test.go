package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

func newTestEntry(uri string) *index.Entry {
	tok, _ := tokenize.New(100)
	e := &index.Entry{URI: uri, Snippet: "package main", Symbols: []string{"main"}}
	e.RecomputeTokens(tok)
	return e
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "index.json")

	entry := newTestEntry("a.go")
	err := Save(path, []*index.Entry{entry}, index.Metadata{})
	require.NoError(t, err)

	result, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "a.go", result.Entries[0].URI)
	assert.Equal(t, index.CurrentVersion, result.Metadata.Version)
	assert.False(t, result.NeedsRebuild)
}

func TestLoad_MissingFileReturnsNotExistError(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_LegacyArrayFormatMigratesAndFlagsRebuild(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `[{"uri": "old.go", "snippet": "package old"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	result, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "old.go", result.Entries[0].URI)
	assert.True(t, result.Migrated)
	assert.True(t, result.NeedsRebuild)
}

func TestLoad_CorruptedFileReportsCorruptionNotError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	result, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.Metadata.Corrupted)
	assert.True(t, result.NeedsRebuild)
}

func TestLoad_VersionMismatchFlagsNeedsRebuild(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "old-version.json")
	doc := `{"metadata": {"version": "0.9.0", "file_count": 0}, "entries": []}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	result, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.NeedsRebuild)
}

func TestTokenField_AcceptsLegacyObjectShape(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "legacy-tokens.json")
	doc := `{"metadata": {"version": "1.0.0"}, "entries": [{"uri": "a.go", "snippet_tokens": {"foo": true, "bar": true}}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	result, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.True(t, result.Entries[0].SnippetTokens.Has("foo"))
	assert.True(t, result.Entries[0].SnippetTokens.Has("bar"))
}

func TestDebouncer_CollapsesBurstsIntoOneCall(t *testing.T) {
	t.Parallel()

	calls := 0
	d := NewDebouncer(20*time.Millisecond, func() { calls++ })

	d.Trigger()
	d.Trigger()
	d.Trigger()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestDebouncer_FlushRunsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	d := NewDebouncer(time.Hour, func() { calls++ })
	d.Trigger()
	d.Flush()
	assert.Equal(t, 1, calls)
}
