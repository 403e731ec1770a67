package watch

import (
	"github.com/codewell/rre/internal/config"
	"github.com/codewell/rre/internal/discovery"
	"github.com/codewell/rre/internal/extract"
)

// AcceptFunc builds the §4.9 event filter: "ignore files whose
// extension is not on the accepted list and whose basename is not an
// overview document." It reuses the same compiled glob patterns as
// the progressive indexer's discovery pass, so a file the indexer
// would never have picked up is never re-indexed on a watch event
// either.
func AcceptFunc(paths config.PathsConfig) (func(relPath string) bool, error) {
	code, err := discovery.CompilePatterns(paths.Code)
	if err != nil {
		return nil, err
	}
	docs, err := discovery.CompilePatterns(paths.Docs)
	if err != nil {
		return nil, err
	}
	ignore, err := discovery.CompilePatterns(paths.Ignore)
	if err != nil {
		return nil, err
	}

	return func(relPath string) bool {
		if discovery.MatchesAny(relPath, ignore) || discovery.MatchesAny(relPath+"/**", ignore) {
			return false
		}
		if extract.IsOverviewDocument(relPath) {
			return true
		}
		return discovery.MatchesAny(relPath, code) || discovery.MatchesAny(relPath, docs)
	}, nil
}
