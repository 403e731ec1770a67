// Package discovery implements the glob-based file walk and exclusion
// rules shared by the progressive indexer and the file watcher (§4.7,
// §4.9): "standard VCS/build directories are never descended into".
package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Discovery walks a workspace root and classifies files as code,
// docs, or ignored, according to compiled glob patterns.
type Discovery struct {
	rootDir        string
	codePatterns   []glob.Glob
	docsPatterns   []glob.Glob
	ignorePatterns []glob.Glob
}

// New compiles codePatterns/docsPatterns/ignorePatterns and returns a
// Discovery rooted at rootDir.
func New(rootDir string, codePatterns, docsPatterns, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{rootDir: rootDir}

	var err error
	if d.codePatterns, err = CompilePatterns(codePatterns); err != nil {
		return nil, fmt.Errorf("discovery: code patterns: %w", err)
	}
	if d.docsPatterns, err = CompilePatterns(docsPatterns); err != nil {
		return nil, fmt.Errorf("discovery: docs patterns: %w", err)
	}
	if d.ignorePatterns, err = CompilePatterns(ignorePatterns); err != nil {
		return nil, fmt.Errorf("discovery: ignore patterns: %w", err)
	}

	return d, nil
}

// CompilePatterns compiles a list of '/'-separated glob patterns, for
// reuse by any caller that needs the same matching rules as Discovery
// (e.g. the file watcher's accept-filter).
func CompilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Files splits the workspace tree into code and doc file paths,
// relative to rootDir with forward-slash separators, honoring the
// ignore patterns throughout (§4.7's "never descend into VCS/build
// directories").
func (d *Discovery) Files() (codeFiles, docFiles []string, err error) {
	err = filepath.Walk(d.rootDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, relErr := filepath.Rel(d.rootDir, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.shouldIgnore(relPath) {
			return nil
		}

		switch {
		case MatchesAny(relPath, d.codePatterns):
			codeFiles = append(codeFiles, relPath)
		case MatchesAny(relPath, d.docsPatterns):
			docFiles = append(docFiles, relPath)
		}

		return nil
	})

	return codeFiles, docFiles, err
}

// ShouldIgnore reports whether relPath (workspace-relative,
// forward-slash) matches an ignore pattern — exported so the file
// watcher (§4.9) can apply the same exclusion list to individual
// change events without re-walking the tree.
func (d *Discovery) ShouldIgnore(relPath string) bool {
	return d.shouldIgnore(relPath)
}

func (d *Discovery) shouldIgnore(relPath string) bool {
	if MatchesAny(relPath, d.ignorePatterns) {
		return true
	}
	return MatchesAny(relPath+"/**", d.ignorePatterns)
}

// MatchesAny reports whether path matches any of the compiled patterns.
func MatchesAny(path string, patterns []glob.Glob) bool {
	for _, p := range patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}
