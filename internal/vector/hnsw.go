package vector

import (
	"context"
	"sync"

	"github.com/coder/hnsw"

	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/store"
)

// HNSWConfig tunes the approximate store.
type HNSWConfig struct {
	Dimensions int
	// M is max connections per layer.
	M int
	// EfSearch is query-time search width.
	EfSearch int
}

// HNSWStore is an approximate nearest-neighbor store for corpora too
// large for a linear scan. Replacing a document uses lazy deletion:
// the old graph node is orphaned rather than removed, because
// coder/hnsw misbehaves when the last node is deleted.
type HNSWStore struct {
	cfg HNSWConfig

	mu      sync.RWMutex
	graph   *hnsw.Graph[uint64]
	docs    map[string]store.Document
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
	closed  bool
}

// Verify interface implementation at compile time
var _ Store = (*HNSWStore)(nil)

// NewHNSWStore creates an empty HNSW-backed store.
func NewHNSWStore(cfg HNSWConfig) *HNSWStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWStore{
		cfg:    cfg,
		graph:  graph,
		docs:   make(map[string]store.Document),
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// Upsert inserts documents with their embeddings.
func (s *HNSWStore) Upsert(docs []store.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return errors.ValidationError("documents and vectors length mismatch", nil)
	}
	for i, vec := range vectors {
		if len(vec) != s.cfg.Dimensions {
			return errors.New(errors.ErrCodeDimensionMismatch, "embedding dimension mismatch", nil).
				WithDetail("documentId", docs[i].ID).
				WithDetail("expected", itoa(s.cfg.Dimensions)).
				WithDetail("got", itoa(len(vec)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.InternalError("vector store is closed", nil)
	}

	for i, doc := range docs {
		if existingKey, exists := s.idMap[doc.ID]; exists {
			// Lazy deletion: orphan the old key instead of removing
			// the node from the graph.
			delete(s.keyMap, existingKey)
			delete(s.idMap, doc.ID)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[doc.ID] = key
		s.keyMap[key] = doc.ID
		s.docs[doc.ID] = doc
	}

	return nil
}

// Search returns up to limit documents whose similarity meets
// threshold, best first. Orphaned graph nodes are skipped, so the
// search over-fetches to compensate.
func (s *HNSWStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != s.cfg.Dimensions {
		return nil, errors.New(errors.ErrCodeDimensionMismatch, "query dimension mismatch", nil).
			WithDetail("expected", itoa(s.cfg.Dimensions)).
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
	if s.graph.Len() == 0 {
		return []Result{}, nil
	}

	orphans := s.graph.Len() - len(s.idMap)
	nodes := s.graph.Search(query, limit+orphans)

	results := make([]Result, 0, limit)
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue
		}

		score := cosineSimilarity(query, node.Value)
		if score < threshold {
			continue
		}

		results = append(results, Result{Document: s.docs[id], Score: score})
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// Count returns the number of live documents.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}

// Dimensions returns the expected embedding dimension.
func (s *HNSWStore) Dimensions() int {
	return s.cfg.Dimensions
}

// Close marks the store closed.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
