package ast

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codewell/rre/internal/collab"
)

// Service is the default AstService collaborator: tree-sitter-backed
// symbol extraction and AST-aligned chunking for every language this
// package has a grammar for (§6, §4.3, §4.4).
type Service struct{}

// New creates the default tree-sitter AstService.
func New() *Service {
	return &Service{}
}

// IsEnabled reports whether this service has a grammar for language.
func (s *Service) IsEnabled(language string) bool {
	_, ok := languages[language]
	return ok
}

// ExtractSymbols returns the flattened, declaration-order list of
// symbol nodes found in text at any depth (nested methods and inner
// classes included), or an empty list if the language has no grammar
// here.
func (s *Service) ExtractSymbols(ctx context.Context, uri string, text string) ([]collab.SymbolNode, error) {
	lang := DetectLanguage(uri)
	def, ok := languages[lang]
	if !ok {
		return nil, nil
	}

	pt, err := parse(def, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("ast: parse %s: %w", uri, err)
	}
	if pt == nil {
		return nil, nil
	}
	defer pt.Close()

	var symbols []collab.SymbolNode
	root := pt.tree.RootNode()
	walk(root, func(n *sitter.Node) bool {
		if n == root {
			return true
		}
		if def.symbolKinds[n.Kind()] {
			name := identifierName(n, pt.source)
			if name != "" {
				symbols = append(symbols, collab.SymbolNode{Name: name})
			}
			return true // descend to pick up nested methods/inner classes
		}
		return true
	})

	return symbols, nil
}

// CreateASTChunks splits text into one chunk per top-level symbol
// node (§4.3 step 3). Non-symbol lines before a symbol (imports,
// package declarations) are included at the start of that symbol's
// chunk; lines after the last symbol are not covered by any chunk.
func (s *Service) CreateASTChunks(ctx context.Context, uri string, text string, symbols []collab.SymbolNode) ([]collab.AstChunk, error) {
	lang := DetectLanguage(uri)
	def, ok := languages[lang]
	if !ok {
		return nil, nil
	}

	pt, err := parse(def, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("ast: parse %s: %w", uri, err)
	}
	if pt == nil {
		return nil, nil
	}
	defer pt.Close()

	lines := strings.Split(text, "\n")
	root := pt.tree.RootNode()

	var chunks []collab.AstChunk
	lastEnd := 0 // 0-based line index, exclusive

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if !def.symbolKinds[child.Kind()] {
			continue
		}

		startLine := int(child.StartPosition().Row)
		endLine := int(child.EndPosition().Row)

		chunkStart := lastEnd
		if startLine < chunkStart {
			chunkStart = startLine
		}
		if chunkStart > len(lines) || endLine+1 > len(lines) {
			continue
		}

		chunks = append(chunks, collab.AstChunk{
			Text:      strings.Join(lines[chunkStart:endLine+1], "\n"),
			StartLine: chunkStart + 1,
			EndLine:   endLine + 1,
		})
		lastEnd = endLine + 1
	}

	return chunks, nil
}
