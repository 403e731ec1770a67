package branchcache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/codewell/rre/internal/git"
)

// snapshotKey is the sole row key within each branch's SQLite file;
// one branch, one snapshot, so the key never varies.
const snapshotKey = "index"

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// Cache restores and stores per-branch index snapshots under cacheRoot,
// one SQLite file per `{repo-identity}/{branch}.db`. Repo identity is
// derived the same way the teacher keys its cache directories: a hash
// of the remote URL plus a hash of the worktree root. Snapshots are
// therefore scoped to one worktree: two clones of the same repo at
// different paths keep separate snapshots, and two unrelated repos
// never collide even if they happen to use the same branch names.
type Cache struct {
	cacheRoot string
	git       git.Operations
}

// New creates a Cache rooted at cacheRoot, using ops for branch and
// repo-identity detection (pass git.NewOperations() in production,
// a mock in tests).
func New(cacheRoot string, ops git.Operations) *Cache {
	return &Cache{cacheRoot: cacheRoot, git: ops}
}

// CurrentBranch returns the project's current branch, exactly as
// reported by the underlying git operations (see git.Operations).
func (c *Cache) CurrentBranch(projectPath string) string {
	return c.git.GetCurrentBranch(projectPath)
}

// Save compresses and stores data as the snapshot for projectPath's
// current branch.
func (c *Cache) Save(projectPath string, data []byte) error {
	branch := c.CurrentBranch(projectPath)
	store, err := openBlobStore(c.dbPath(projectPath, branch))
	if err != nil {
		return err
	}
	return store.put(snapshotKey, data)
}

// Restore returns the snapshot for projectPath's current branch, the
// time it was saved, and whether one was found. When the current
// branch has no snapshot of its own, it falls back to the nearest
// ancestor branch (main or master) the same way the teacher falls
// back when a feature branch hasn't been indexed yet.
func (c *Cache) Restore(projectPath string) ([]byte, time.Time, bool, error) {
	branch := c.CurrentBranch(projectPath)
	if data, at, ok, err := c.restoreBranch(projectPath, branch); ok || err != nil {
		return data, at, ok, err
	}

	ancestor := c.git.FindAncestorBranch(projectPath, branch)
	if ancestor == "" || ancestor == branch {
		return nil, time.Time{}, false, nil
	}
	return c.restoreBranch(projectPath, ancestor)
}

func (c *Cache) restoreBranch(projectPath, branch string) ([]byte, time.Time, bool, error) {
	store, err := openBlobStore(c.dbPath(projectPath, branch))
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return store.get(snapshotKey)
}

// dbPath returns the SQLite file path for projectPath's repo identity
// and the given branch.
func (c *Cache) dbPath(projectPath, branch string) string {
	return c.cacheRoot + "/" + c.repoIdentity(projectPath) + "/" + sanitize(branch) + ".db"
}

// repoIdentity combines an 8-char hash of the remote URL with an
// 8-char hash of the worktree root, so a repo without a configured
// remote still gets a stable, worktree-scoped identity.
func (c *Cache) repoIdentity(projectPath string) string {
	remote := c.git.GetRemoteURL(projectPath)
	worktree := c.git.GetWorktreeRoot(projectPath)
	return shortHash(remote) + "-" + shortHash(worktree)
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:8]
}

// sanitize replaces characters that are unsafe in a filename (branch
// names may contain "/", as in "feature/foo") with "_".
func sanitize(name string) string {
	if name == "" {
		return "unknown"
	}
	return unsafePathChars.ReplaceAllString(name, "_")
}
