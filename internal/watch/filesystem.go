// Package watch implements the default fsnotify-backed FileSystem
// collaborator and the debounced incremental updater described in
// §4.9, grounded on the teacher's internal/watcher/file_watcher.go.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/discovery"
)

// DefaultMaxDirectories and DefaultMaxDepth bound how far a recursive
// watch will descend, matching the teacher's production limits.
const (
	DefaultMaxDirectories = 1000
	DefaultMaxDepth       = 10
)

// FSFileSystem is the default collab.FileSystem: plain os file I/O
// plus a recursive fsnotify watch, with the same directory-count and
// depth guards the teacher's fileWatcher enforces.
type FSFileSystem struct {
	MaxDirectories int
	MaxDepth       int
}

// NewFSFileSystem returns an FSFileSystem with production limits.
func NewFSFileSystem() *FSFileSystem {
	return &FSFileSystem{MaxDirectories: DefaultMaxDirectories, MaxDepth: DefaultMaxDepth}
}

func (fs *FSFileSystem) List(ctx context.Context, dir string) ([]collab.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]collab.DirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, collab.DirEntry{Name: e.Name(), IsDir: e.IsDir(), ModTime: info.ModTime()})
	}
	return out, nil
}

func (fs *FSFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (fs *FSFileSystem) Stat(ctx context.Context, path string) (collab.DirEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return collab.DirEntry{}, err
	}
	return collab.DirEntry{Name: info.Name(), IsDir: info.IsDir(), ModTime: info.ModTime()}, nil
}

func (fs *FSFileSystem) MkdirAll(ctx context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

func (fs *FSFileSystem) WriteFile(ctx context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// Watch starts a recursive fsnotify watch rooted at root, excluding
// any path matching excludeGlobs, and returns a channel of file
// change events that closes when ctx is cancelled (§6, §4.9).
func (fs *FSFileSystem) Watch(ctx context.Context, root string, excludeGlobs []string) (<-chan collab.FileEvent, error) {
	patterns, err := discovery.CompilePatterns(excludeGlobs)
	if err != nil {
		return nil, fmt.Errorf("watch: compile exclude patterns: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	maxDirs := fs.MaxDirectories
	if maxDirs <= 0 {
		maxDirs = DefaultMaxDirectories
	}
	maxDepth := fs.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	state := &watchState{
		watcher:  w,
		root:     root,
		patterns: patterns,
		maxDirs:  maxDirs,
		maxDepth: maxDepth,
	}

	if err := state.addRecursively(root, 0); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch: %w", err)
	}

	out := make(chan collab.FileEvent, 64)
	go state.run(ctx, out)
	return out, nil
}

// watchState holds the mutable bookkeeping for one active recursive
// watch (§4.7/§4.9's directory-count and depth guards).
type watchState struct {
	watcher  *fsnotify.Watcher
	root     string
	patterns []glob.Glob

	maxDirs  int
	maxDepth int

	mu       sync.Mutex
	dirCount int
}

func (s *watchState) relPath(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (s *watchState) isExcluded(relPath string) bool {
	if relPath == "." {
		return false
	}
	return discovery.MatchesAny(relPath, s.patterns) || discovery.MatchesAny(relPath+"/**", s.patterns)
}

func (s *watchState) addRecursively(dir string, depth int) error {
	if depth > s.maxDepth {
		return nil
	}

	rel := s.relPath(dir)
	if s.isExcluded(rel) {
		return nil
	}

	s.mu.Lock()
	if s.dirCount >= s.maxDirs {
		s.mu.Unlock()
		return fmt.Errorf("directory limit reached: %d (max %d)", s.dirCount, s.maxDirs)
	}
	s.dirCount++
	s.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		_ = s.addRecursively(filepath.Join(dir, e.Name()), depth+1)
	}
	return nil
}

func (s *watchState) run(ctx context.Context, out chan<- collab.FileEvent) {
	defer close(out)
	defer s.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ctx, event, out)

		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *watchState) handleEvent(ctx context.Context, event fsnotify.Event, out chan<- collab.FileEvent) {
	rel := s.relPath(event.Name)
	if s.isExcluded(rel) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = s.addRecursively(event.Name, 0)
			return
		}
	}

	var kind collab.FileEventKind
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		kind = collab.FileDeleted
	case event.Op&fsnotify.Create != 0:
		kind = collab.FileAdded
	case event.Op&fsnotify.Write != 0:
		kind = collab.FileUpdated
	default:
		return
	}

	select {
	case out <- collab.FileEvent{Path: event.Name, Kind: kind}:
	case <-ctx.Done():
	case <-time.After(time.Second):
	}
}
