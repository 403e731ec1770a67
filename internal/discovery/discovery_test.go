package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("content"), 0o644))
}

func TestFiles_ClassifiesCodeAndDocs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go")
	writeFile(t, root, "README.md")
	writeFile(t, root, "data.json")

	d, err := New(root, []string{"**/*.go"}, []string{"**/*.md"}, nil)
	require.NoError(t, err)

	code, docs, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, code)
	assert.Equal(t, []string{"README.md"}, docs)
}

func TestFiles_SkipsIgnoredDirectoriesEntirely(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go")
	writeFile(t, root, "node_modules/lib/index.go")

	d, err := New(root, []string{"**/*.go"}, nil, []string{"node_modules/**"})
	require.NoError(t, err)

	code, _, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, code)
}

func TestFiles_IgnorePatternMatchesDirectoryItself(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go")
	writeFile(t, root, "vendor/pkg/thing.go")

	d, err := New(root, []string{"**/*.go"}, nil, []string{"vendor"})
	require.NoError(t, err)

	code, _, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, code)
}

func TestFiles_IgnoredFileIsExcludedEvenIfItMatchesCodePattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "main.go")
	writeFile(t, root, "generated.d.ts")

	d, err := New(root, []string{"**/*.go", "**/*.ts"}, nil, []string{"*.d.ts"})
	require.NoError(t, err)

	code, _, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, code)
}

func TestFiles_MultipleMatchesSortedForDeterministicAssertion(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.go")
	writeFile(t, root, "b/c.go")

	d, err := New(root, []string{"**/*.go"}, nil, nil)
	require.NoError(t, err)

	code, _, err := d.Files()
	require.NoError(t, err)
	sort.Strings(code)
	assert.Equal(t, []string{"a.go", "b/c.go"}, code)
}

func TestNew_InvalidPatternReturnsError(t *testing.T) {
	t.Parallel()

	_, err := New(t.TempDir(), []string{"["}, nil, nil)
	assert.Error(t, err)
}

func TestShouldIgnore_MatchesExportedDirectly(t *testing.T) {
	t.Parallel()

	d, err := New(t.TempDir(), nil, nil, []string{"build/**"})
	require.NoError(t, err)

	assert.True(t, d.ShouldIgnore("build/output.js"))
	assert.False(t, d.ShouldIgnore("src/output.js"))
}
