package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewell/rre/internal/collab"
)

func TestFSFileSystem_WatchDetectsNewFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fs := NewFSFileSystem()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := fs.Watch(ctx, root, nil)
	require.NoError(t, err)

	path := filepath.Join(root, "new.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a file event for the new file")
	}
}

func TestFSFileSystem_WatchRespectsExcludeGlobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))

	fs := NewFSFileSystem()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := fs.Watch(ctx, root, []string{"vendor/**"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "lib.go"), []byte("package lib\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, filepath.Join(root, "main.go"), ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a file event for main.go")
	}
}

func TestFSFileSystem_ReadWriteRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fs := NewFSFileSystem()
	ctx := context.Background()

	path := filepath.Join(root, "f.txt")
	require.NoError(t, fs.WriteFile(ctx, path, []byte("hello")))

	data, err := fs.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entry, err := fs.Stat(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "f.txt", entry.Name)
	assert.False(t, entry.IsDir)
}

func TestFSFileSystem_WatchStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fs := NewFSFileSystem()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := fs.Watch(ctx, root, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("expected events channel to close after cancellation")
	}
}

var _ collab.FileSystem = (*FSFileSystem)(nil)
