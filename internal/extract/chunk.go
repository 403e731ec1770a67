package extract

import "strings"

// Chunk is a contiguous, line-bounded region of extracted text.
type Chunk struct {
	Text      string
	StartLine int // 1-based
	EndLine   int // 1-based
}

// Budget holds the size parameters for one extraction pass. Overview
// documents get a larger snippet and fewer, larger chunks than
// ordinary files (§4.3); callers pick the right Budget via
// IsOverviewDocument.
type Budget struct {
	SnippetChars int
	ChunkCount   int
	ChunkChars   int
	OverlapChars int
}

// Result is the output of one file's fallback (non-AST) extraction pass.
type Result struct {
	Snippet          string
	SnippetStartLine int
	SnippetEndLine   int
	Chunks           []Chunk
}

// Fallback splits content into a leading snippet and a sequence of
// overlapping chunks, both aligned to line boundaries with accurate
// 1-based line ranges (§4.3 step 3's non-AST path). Used whenever the
// AST collaborator is disabled or declines to chunk a file.
func Fallback(content string, budget Budget) Result {
	if strings.TrimSpace(content) == "" {
		return Result{}
	}

	lines := strings.Split(content, "\n")

	snippet, snippetStart, snippetEnd := buildSnippet(lines, budget.SnippetChars)
	chunks := buildChunks(lines, budget.ChunkCount, budget.ChunkChars, budget.OverlapChars)

	return Result{
		Snippet:          snippet,
		SnippetStartLine: snippetStart,
		SnippetEndLine:   snippetEnd,
		Chunks:           chunks,
	}
}

// buildSnippet takes a leading run of lines whose combined length is
// at least budgetChars (stopping at the first line boundary at or
// past the budget), never splitting mid-line.
func buildSnippet(lines []string, budgetChars int) (text string, startLine, endLine int) {
	if len(lines) == 0 || budgetChars <= 0 {
		return "", 0, 0
	}

	length := 0
	end := 0
	for end < len(lines) {
		length += len(lines[end]) + 1
		end++
		if length >= budgetChars {
			break
		}
	}

	return strings.Join(lines[:end], "\n"), 1, end
}

// buildChunks slides a window of roughly chunkChars characters across
// lines, advancing by (chunkChars - overlapChars) each step, up to
// count chunks or until the content is exhausted.
func buildChunks(lines []string, count, chunkChars, overlapChars int) []Chunk {
	if len(lines) == 0 || count <= 0 || chunkChars <= 0 {
		return nil
	}

	advanceChars := chunkChars - overlapChars
	if advanceChars <= 0 {
		advanceChars = chunkChars
	}

	var chunks []Chunk
	start := 0
	for start < len(lines) && len(chunks) < count {
		end := start
		length := 0
		for end < len(lines) {
			length += len(lines[end]) + 1
			end++
			if length >= chunkChars {
				break
			}
		}

		chunks = append(chunks, Chunk{
			Text:      strings.Join(lines[start:end], "\n"),
			StartLine: start + 1,
			EndLine:   end,
		})

		if end >= len(lines) {
			break
		}

		advanced := 0
		newStart := start
		for newStart < end {
			advanced += len(lines[newStart]) + 1
			newStart++
			if advanced >= advanceChars {
				break
			}
		}
		if newStart <= start {
			newStart = start + 1
		}
		start = newStart
	}

	return chunks
}
