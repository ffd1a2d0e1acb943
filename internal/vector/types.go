// Package vector provides in-memory semantic search over document
// embeddings. The default store computes exact cosine similarity by
// linear scan, which is both deterministic and fast enough for
// corpora of a few thousand documents; an HNSW-backed store exists
// for larger corpora where approximate search pays off.
package vector

import (
	"context"
	"math"
	"strconv"

	"github.com/devapihub/apisearch/internal/store"
)

// Result is a single vector search hit.
type Result struct {
	Document store.Document
	// Score is cosine similarity clamped to [0, 1].
	Score float64
}

// Store indexes documents by embedding and answers nearest-neighbor
// queries. Upsert replaces entries that share an ID.
type Store interface {
	// Upsert inserts documents with their embeddings. A document whose
	// ID is already present is replaced in place.
	Upsert(docs []store.Document, vectors [][]float32) error

	// Search returns up to limit documents whose similarity to query
	// meets threshold, best first.
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]Result, error)

	// Count returns the number of indexed documents.
	Count() int

	// Dimensions returns the expected embedding dimension.
	Dimensions() int

	// Close releases resources.
	Close() error
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// cosineSimilarity computes the cosine of the angle between a and b,
// clamped to [0, 1]. A zero vector has similarity 0 to everything.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
