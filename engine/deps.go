package engine

import (
	"context"

	"github.com/codewell/rre/internal/ast"
	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/git"
	"github.com/codewell/rre/internal/vectorstore"
	"github.com/codewell/rre/internal/watch"
)

// Dependencies are the collaborators the engine consumes but never
// implements itself (§6). Every field is optional: a nil field is
// replaced by a default that keeps the engine usable standalone.
type Dependencies struct {
	FS       collab.FileSystem
	Notify   collab.NotificationService
	Workspace collab.WorkspaceContext

	AST       collab.AstService
	Embedding collab.EmbeddingService
	Privacy   collab.PrivacyGate
	Secrets   collab.SecretDetectionService
	VecStore  collab.VectorStore

	// Git provides branch/remote detection for the branch-aware
	// snapshot cache. Defaults to shelling out to the real git binary.
	Git git.Operations

	// CacheRoot is where internal/branchcache stores its per-branch
	// snapshot files. Defaults to "<root>/.rre/branches" at WarmIndex
	// time if left empty.
	CacheRoot string

	// OnIndexProgress, if set, is called during progressive.Indexer.Run
	// with the running file count and total discovered, for a host UI
	// (e.g. a CLI progress bar) to track a full indexing pass.
	OnIndexProgress func(processed, total int)
}

func (d *Dependencies) setDefaults() {
	if d.FS == nil {
		d.FS = watch.NewFSFileSystem()
	}
	if d.Notify == nil {
		d.Notify = collab.NopNotificationService{}
	}
	if d.AST == nil {
		d.AST = ast.New()
	}
	if d.Embedding == nil {
		d.Embedding = collab.NopEmbeddingService{}
	}
	if d.Privacy == nil {
		d.Privacy = collab.AlwaysOnlinePrivacyGate{}
	}
	if d.Secrets == nil {
		d.Secrets = collab.NopSecretDetector{}
	}
	if d.VecStore == nil {
		d.VecStore = collab.NopVectorStore{}
	}
	if d.Git == nil {
		d.Git = git.NewOperations()
	}
}

// vectorStoreLoader is satisfied by internal/vectorstore.ChromemStore.
// The engine type-asserts against it rather than widening
// collab.VectorStore, keeping that trait's contract (§6) exactly the
// read-only is_enabled/query pair the spec defines.
type vectorStoreLoader interface {
	Load(ctx context.Context, docs []vectorstore.VectorDocument) error
}
