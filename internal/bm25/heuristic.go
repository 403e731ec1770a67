package bm25

import "strings"

// BlendWeight is the fixed weight given to the BM25 component when
// blending it against the heuristic score (§4.5).
const BlendWeight = 0.3

// Blend combines a heuristic score and a BM25 score into the final
// entry-level relevance score.
func Blend(heuristic, bm25 float64) float64 {
	return (1-BlendWeight)*heuristic + BlendWeight*bm25
}

// HeuristicInput carries the pieces of an entry needed to compute its
// base heuristic score for one query.
type HeuristicInput struct {
	Symbols       []string
	SymbolTokens  map[string]struct{}
	URITokens     map[string]struct{}
	SnippetTokens map[string]struct{}
	Snippet       string
}

// BaseHeuristicScore implements §4.5's point scheme:
//   - exact symbol match: +10
//   - partial (substring) symbol match: +4
//   - symbol-token overlap: +2 per overlapping token
//   - URI token match: +3, binary (once, if any token overlaps at all)
//   - snippet token overlap: +min(1.5 * matches, 5)
//   - exact phrase present in snippet: +1
func BaseHeuristicScore(queryText string, queryTokens map[string]struct{}, in HeuristicInput) float64 {
	score := 0.0

	lowerQuery := strings.ToLower(strings.TrimSpace(queryText))
	for _, sym := range in.Symbols {
		lowerSym := strings.ToLower(sym)
		if lowerSym == lowerQuery {
			score += 10
		} else if lowerQuery != "" && strings.Contains(lowerSym, lowerQuery) {
			score += 4
		}
	}

	score += 2 * float64(overlapCount(queryTokens, in.SymbolTokens))
	if overlapCount(queryTokens, in.URITokens) > 0 {
		score += 3
	}

	snippetMatches := overlapCount(queryTokens, in.SnippetTokens)
	snippetBonus := 1.5 * float64(snippetMatches)
	if snippetBonus > 5 {
		snippetBonus = 5
	}
	score += snippetBonus

	if lowerQuery != "" && strings.Contains(strings.ToLower(in.Snippet), lowerQuery) {
		score += 1
	}

	return score
}

// ChunkScore implements §4.5's chunk-level score: an exact phrase hit
// scores +5 plus 2 per overlapping token, normalized by chunk length
// so long chunks don't win purely on size.
func ChunkScore(queryText string, queryTokens map[string]struct{}, chunkText string, chunkTokens map[string]struct{}) float64 {
	score := 2 * float64(overlapCount(queryTokens, chunkTokens))

	lowerQuery := strings.ToLower(strings.TrimSpace(queryText))
	if lowerQuery != "" && strings.Contains(strings.ToLower(chunkText), lowerQuery) {
		score += 5
	}

	length := len(chunkText)
	if length == 0 {
		return 0
	}
	const referenceLength = 400 // matches the default chunk size (§4.3), avoids rewarding raw length
	return score * referenceLength / float64(length)
}

func overlapCount(a, b map[string]struct{}) int {
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
