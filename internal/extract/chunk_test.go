package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultBudget() Budget {
	return Budget{SnippetChars: 40, ChunkCount: 3, ChunkChars: 30, OverlapChars: 10}
}

func TestFallback_EmptyContentReturnsEmptyResult(t *testing.T) {
	t.Parallel()

	got := Fallback("   \n\n  ", defaultBudget())
	assert.Empty(t, got.Chunks)
	assert.Empty(t, got.Snippet)
}

func TestFallback_SnippetRespectsLineBoundaries(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{"line one", "line two", "line three", "line four"}, "\n")
	got := Fallback(content, defaultBudget())

	require.NotEmpty(t, got.Snippet)
	assert.Equal(t, 1, got.SnippetStartLine)
	assert.False(t, strings.HasSuffix(got.Snippet, "lin"), "must not cut mid-line")
}

func TestFallback_ChunksCoverFullLineRanges(t *testing.T) {
	t.Parallel()

	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, "some text on this line")
	}
	content := strings.Join(lines, "\n")

	got := Fallback(content, Budget{SnippetChars: 20, ChunkCount: 5, ChunkChars: 50, OverlapChars: 10})
	require.NotEmpty(t, got.Chunks)

	for _, c := range got.Chunks {
		assert.LessOrEqual(t, c.StartLine, c.EndLine)
		assert.GreaterOrEqual(t, c.StartLine, 1)
	}
}

func TestFallback_ChunksOverlap(t *testing.T) {
	t.Parallel()

	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, "abcdefghij") // 10 chars/line
	}
	content := strings.Join(lines, "\n")

	got := Fallback(content, Budget{SnippetChars: 20, ChunkCount: 5, ChunkChars: 40, OverlapChars: 20})
	require.GreaterOrEqual(t, len(got.Chunks), 2)
	assert.Less(t, got.Chunks[1].StartLine, got.Chunks[0].EndLine+1, "second chunk should start before or at the first chunk's end due to overlap")
}

func TestFallback_NeverExceedsConfiguredChunkCount(t *testing.T) {
	t.Parallel()

	lines := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, "x")
	}
	content := strings.Join(lines, "\n")

	got := Fallback(content, Budget{SnippetChars: 10, ChunkCount: 3, ChunkChars: 5, OverlapChars: 1})
	assert.LessOrEqual(t, len(got.Chunks), 3)
}
