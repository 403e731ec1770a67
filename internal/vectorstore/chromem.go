// Package vectorstore implements the default VectorStore collaborator
// (§4.5, §6) backed by chromem-go, an in-process embedded vector
// database requiring no external service.
package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/codewell/rre/internal/collab"
)

const collectionName = "rre"

// ChromemStore is the default VectorStore: an in-process chromem-go
// collection, swapped atomically under a RWMutex on rebuild so
// concurrent queries never observe a half-populated collection.
type ChromemStore struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	enabled    bool
}

// NewChromemStore creates an empty, disabled store. Call Load to
// populate it and enable it.
func NewChromemStore() *ChromemStore {
	return &ChromemStore{db: chromem.NewDB()}
}

// IsEnabled reports whether the store has been populated at least once.
func (s *ChromemStore) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// VectorDocument is one document handed to Load: either a whole
// entry's snippet (ID == uri) or one of its chunks (ID ==
// "uri:chunk_index"), per §6's id convention.
type VectorDocument struct {
	ID        string
	Text      string
	Embedding []float32
}

// Load replaces the store's collection atomically with the given
// documents (§5's "shared indexes mutated only by the controlling
// task" — the swap itself is the only state this component mutates).
func (s *ChromemStore) Load(ctx context.Context, docs []VectorDocument) error {
	collection, err := s.db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: create collection: %w", err)
	}

	for _, d := range docs {
		if len(d.Embedding) == 0 {
			continue
		}
		err := collection.AddDocument(ctx, chromem.Document{
			ID:        d.ID,
			Content:   d.Text,
			Embedding: d.Embedding,
		})
		if err != nil {
			return fmt.Errorf("vectorstore: add document %s: %w", d.ID, err)
		}
	}

	s.mu.Lock()
	s.collection = collection
	s.enabled = true
	s.mu.Unlock()

	return nil
}

// Query returns the k nearest documents to vec by cosine similarity
// (§6's VectorStore.query).
func (s *ChromemStore) Query(ctx context.Context, vec []float32, k int) ([]collab.VectorMatch, error) {
	s.mu.RLock()
	collection := s.collection
	s.mu.RUnlock()

	if collection == nil || k <= 0 {
		return nil, nil
	}

	n := k
	if count := collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	docs, err := collection.QueryEmbedding(ctx, vec, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query: %w", err)
	}

	matches := make([]collab.VectorMatch, 0, len(docs))
	for _, d := range docs {
		matches = append(matches, collab.VectorMatch{ID: d.ID, Score: float64(d.Similarity)})
	}
	return matches, nil
}
