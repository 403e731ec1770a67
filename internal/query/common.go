package query

import (
	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

// commonQueries lists the single-token queries frequent enough to
// justify a precomputed warm candidate pool, computed once per
// BuildCommonPools call rather than on every matching query (§4.6 step
// 5: "a small set of precomputed common patterns"). A Frontend
// consults these pools only when its caller passes them to
// NewFrontend; the engine passes none, so engine queries always select
// candidates from the live store.
var commonQueries = []string{"function", "class", "test", "config", "error", "struct", "interface"}

// CommonPools holds the precomputed candidate set for each entry in
// commonQueries, built against one Store snapshot.
type CommonPools struct {
	pools map[string]map[int]struct{}
}

// BuildCommonPools computes the warm candidate pool for every common
// query against the given store. Call again after a rebuild or a
// large batch of updates to keep the pools fresh.
func BuildCommonPools(store *index.Store) *CommonPools {
	pools := make(map[string]map[int]struct{}, len(commonQueries))
	for _, q := range commonQueries {
		pools[q] = store.Candidates(tokenize.Split(q))
	}
	return &CommonPools{pools: pools}
}

// lookup returns the warm pool for canon, if canon is exactly one of
// the precomputed common queries.
func (p *CommonPools) lookup(canon string) (map[int]struct{}, bool) {
	if p == nil {
		return nil, false
	}
	pool, ok := p.pools[canon]
	return pool, ok
}
