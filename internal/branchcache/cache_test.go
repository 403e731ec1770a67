package branchcache

import (
	"testing"

	"github.com/codewell/rre/internal/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SaveThenRestoreRoundTrips(t *testing.T) {
	t.Parallel()

	mock := git.NewMockGitOps()
	mock.CurrentBranch = "feature/x"
	c := New(t.TempDir(), mock)

	require.NoError(t, c.Save("/repo", []byte("snapshot-bytes")))

	data, _, ok, err := c.Restore("/repo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("snapshot-bytes"), data)
}

func TestCache_RestoreWithNoSnapshotReturnsNotFound(t *testing.T) {
	t.Parallel()

	mock := git.NewMockGitOps()
	c := New(t.TempDir(), mock)

	data, _, ok, err := c.Restore("/repo")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestCache_RestoreFallsBackToAncestorBranch(t *testing.T) {
	t.Parallel()

	mock := git.NewMockGitOps()
	mock.CurrentBranch = "main"
	c := New(t.TempDir(), mock)
	require.NoError(t, c.Save("/repo", []byte("main-snapshot")))

	mock.CurrentBranch = "feature/new-thing"
	mock.AncestorBranch = "main"

	data, _, ok, err := c.Restore("/repo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("main-snapshot"), data)
}

func TestCache_DifferentRepoIdentitiesDoNotCollide(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mockA := git.NewMockGitOps()
	mockA.RemoteURL = "https://github.com/user/repo-a.git"
	cA := New(root, mockA)
	require.NoError(t, cA.Save("/repo-a", []byte("a-snapshot")))

	mockB := git.NewMockGitOps()
	mockB.RemoteURL = "https://github.com/user/repo-b.git"
	cB := New(root, mockB)

	_, _, ok, err := cB.Restore("/repo-b")
	require.NoError(t, err)
	assert.False(t, ok, "repo-b must not see repo-a's snapshot")
}

func TestCache_BranchNameWithSlashIsSanitizedToValidPath(t *testing.T) {
	t.Parallel()

	mock := git.NewMockGitOps()
	mock.CurrentBranch = "feature/deep/nested"
	c := New(t.TempDir(), mock)

	require.NoError(t, c.Save("/repo", []byte("x")))
	_, _, ok, err := c.Restore("/repo")
	require.NoError(t, err)
	assert.True(t, ok)
}
