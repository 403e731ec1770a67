// Package ast implements the default AstService collaborator (§4.3
// step 3, §4.4): tree-sitter-backed symbol extraction and AST-aligned
// chunking for the languages the pack ships grammars for, with every
// other extension left to the fallback chunker.
package ast

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// languageDef pairs a tree-sitter grammar with the node kinds this
// package treats as symbol-bearing declarations for that language.
type languageDef struct {
	language    *sitter.Language
	symbolKinds map[string]bool
}

var languages = map[string]languageDef{
	"python": {
		language:    sitter.NewLanguage(python.Language()),
		symbolKinds: kindSet("function_definition", "class_definition"),
	},
	"javascript": {
		language:    sitter.NewLanguage(typescript.LanguageTypescript()),
		symbolKinds: kindSet("function_declaration", "class_declaration", "method_definition"),
	},
	"typescript": {
		language:    sitter.NewLanguage(typescript.LanguageTypescript()),
		symbolKinds: kindSet("function_declaration", "class_declaration", "method_definition", "interface_declaration"),
	},
	"rust": {
		language:    sitter.NewLanguage(rust.Language()),
		symbolKinds: kindSet("function_item", "struct_item", "enum_item", "trait_item", "impl_item"),
	},
	"c": {
		language:    sitter.NewLanguage(c.Language()),
		symbolKinds: kindSet("function_definition", "struct_specifier"),
	},
	"java": {
		language:    sitter.NewLanguage(java.Language()),
		symbolKinds: kindSet("class_declaration", "method_declaration", "interface_declaration"),
	},
	"php": {
		language:    sitter.NewLanguage(php.Language()),
		symbolKinds: kindSet("function_definition", "class_declaration", "method_declaration"),
	},
	"ruby": {
		language:    sitter.NewLanguage(ruby.Language()),
		symbolKinds: kindSet("method", "class", "module"),
	},
}

func kindSet(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// extensionLanguages maps file extensions to the language keys above.
var extensionLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// DetectLanguage maps a file path's extension to a supported language
// key, or "" if this package has no grammar for it.
func DetectLanguage(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}
