package query

import (
	"fmt"
	"strings"

	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

// maxMatchingSymbols and maxExtraSymbols cap how many symbols appear
// on the Symbols: line:
// up to 5 matching the query plus 5 more (§4.5's formatting rule).
const (
	maxMatchingSymbols = 5
	maxExtraSymbols    = 5
)

// Format renders one candidate as the human-readable result block
// (§4.5: "File: <uri>:<start>[-<end>]", optional Symbols line, then
// the chunk or snippet text).
func Format(store *index.Store, c candidate, queryTokens tokenize.Set) (string, bool) {
	e, ok := store.EntryAt(c.entryIndex)
	if !ok {
		return "", false
	}

	var b strings.Builder

	if c.isChunk() {
		if c.chunkIndex >= len(e.Chunks) {
			return "", false
		}
		chunk := e.Chunks[c.chunkIndex]
		fmt.Fprintf(&b, "File: %s:%d-%d\n", e.URI, chunk.StartLine, chunk.EndLine)
		writeSymbolsLine(&b, e.Symbols, queryTokens)
		b.WriteString(chunk.Text)
		return b.String(), true
	}

	if e.SnippetEndLine > e.SnippetStartLine {
		fmt.Fprintf(&b, "File: %s:%d-%d\n", e.URI, e.SnippetStartLine, e.SnippetEndLine)
	} else {
		fmt.Fprintf(&b, "File: %s:%d\n", e.URI, e.SnippetStartLine)
	}
	writeSymbolsLine(&b, e.Symbols, queryTokens)
	b.WriteString(e.Snippet)
	return b.String(), true
}

// writeSymbolsLine appends an optional "Symbols: ..." line, listing
// query-matching symbols first (up to 5), then up to 5 more.
func writeSymbolsLine(b *strings.Builder, symbols []string, queryTokens tokenize.Set) {
	if len(symbols) == 0 {
		return
	}

	var matching, rest []string
	for _, sym := range symbols {
		if symbolMatchesQuery(sym, queryTokens) {
			if len(matching) < maxMatchingSymbols {
				matching = append(matching, sym)
			}
		} else if len(rest) < maxExtraSymbols {
			rest = append(rest, sym)
		}
	}

	ordered := append(matching, rest...)
	if len(ordered) == 0 {
		return
	}

	fmt.Fprintf(b, "Symbols: %s\n", strings.Join(ordered, ", "))
}

func symbolMatchesQuery(symbol string, queryTokens tokenize.Set) bool {
	for t := range tokenize.Split(symbol) {
		if queryTokens.Has(t) {
			return true
		}
	}
	return false
}
