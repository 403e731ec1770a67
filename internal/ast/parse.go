package ast

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parsedTree owns a tree-sitter parser and the tree it produced for
// one source text; Close releases both native resources.
type parsedTree struct {
	parser *sitter.Parser
	tree   *sitter.Tree
	source []byte
}

func parse(def languageDef, source []byte) (*parsedTree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(def.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		parser.Close()
		return nil, nil
	}

	return &parsedTree{parser: parser, tree: tree, source: source}, nil
}

func (p *parsedTree) Close() {
	if p == nil {
		return
	}
	if p.tree != nil {
		p.tree.Close()
	}
	if p.parser != nil {
		p.parser.Close()
	}
}

// walk invokes visit for every node in the tree in pre-order,
// depth-first. visit returns false to skip a node's children.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), visit)
	}
}

// nodeText returns the source slice covered by node.
func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// identifierName returns the text of the first descendant of node
// whose kind names an identifier-shaped token, used to recover a
// symbol's declared name across grammars with different field names.
func identifierName(node *sitter.Node, source []byte) string {
	var name string
	walk(node, func(n *sitter.Node) bool {
		if name != "" {
			return false
		}
		kind := n.Kind()
		if kind == "identifier" || kind == "type_identifier" || kind == "name" ||
			kind == "constant" || kind == "property_identifier" {
			name = nodeText(n, source)
			return false
		}
		return true
	})
	return name
}
