package vector

import (
	"context"
	"sort"
	"sync"

	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/store"
)

// LinearStore is an exact cosine-similarity store backed by a slice.
// Entries keep insertion order, so equal-score results come back in
// the order their documents were added.
type LinearStore struct {
	dims int

	mu      sync.RWMutex
	entries []linearEntry
	byID    map[string]int
	closed  bool
}

type linearEntry struct {
	doc store.Document
	vec []float32
}

// Verify interface implementation at compile time
var _ Store = (*LinearStore)(nil)

// NewLinearStore creates an empty store for vectors of the given
// dimension.
func NewLinearStore(dims int) *LinearStore {
	return &LinearStore{
		dims: dims,
		byID: make(map[string]int),
	}
}

// Upsert inserts documents with their embeddings. Existing IDs are
// replaced in place, keeping their original position.
func (s *LinearStore) Upsert(docs []store.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return errors.ValidationError("documents and vectors length mismatch", nil).
			WithDetail("documents", itoa(len(docs))).
			WithDetail("vectors", itoa(len(vectors)))
	}

	for i, vec := range vectors {
		if len(vec) != s.dims {
			return errors.New(errors.ErrCodeDimensionMismatch, "embedding dimension mismatch", nil).
				WithDetail("documentId", docs[i].ID).
				WithDetail("expected", itoa(s.dims)).
				WithDetail("got", itoa(len(vec)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.InternalError("vector store is closed", nil)
	}

	for i, doc := range docs {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])

		if idx, ok := s.byID[doc.ID]; ok {
			s.entries[idx] = linearEntry{doc: doc, vec: vec}
			continue
		}

		s.byID[doc.ID] = len(s.entries)
		s.entries = append(s.entries, linearEntry{doc: doc, vec: vec})
	}

	return nil
}

// Search scans all entries, keeps those whose similarity meets
// threshold, and returns the top limit by score. Ties keep insertion
// order.
func (s *LinearStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != s.dims {
		return nil, errors.New(errors.ErrCodeDimensionMismatch, "query dimension mismatch", nil).
			WithDetail("expected", itoa(s.dims)).
			WithDetail("got", itoa(len(query)))
	}
	if limit <= 0 {
		return []Result{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.InternalError("vector store is closed", nil)
	}

	results := make([]Result, 0, len(s.entries))
	for _, entry := range s.entries {
		score := cosineSimilarity(query, entry.vec)
		if score < threshold {
			continue
		}
		results = append(results, Result{Document: entry.doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (s *LinearStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dimensions returns the expected embedding dimension.
func (s *LinearStore) Dimensions() int {
	return s.dims
}

// Close marks the store closed.
func (s *LinearStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
