package search

import (
	"sort"

	"github.com/devapihub/apisearch/internal/fuzzy"
	"github.com/devapihub/apisearch/internal/vector"
)

// Default fusion weights. Vector similarity dominates because the
// fuzzy side already filtered hard on lexical overlap.
const (
	DefaultVectorWeight = 0.7
	DefaultFuzzyWeight  = 0.3
)

// FusedResult is one document after weighted-sum fusion.
type FusedResult struct {
	ID string
	// Combined = VectorScore*vectorWeight + FuzzyScore*fuzzyWeight.
	Combined    float64
	VectorScore float64
	FuzzyScore  float64
	// corpusOrder breaks full ties deterministically.
	corpusOrder int
}

// MatchType labels which sides contributed to the result.
func (r FusedResult) MatchType() string {
	switch {
	case r.VectorScore > 0 && r.FuzzyScore > 0:
		return MatchHybrid
	case r.VectorScore > 0:
		return MatchVector
	default:
		return MatchFuzzy
	}
}

// Fuse merges one query's fuzzy and vector result sets into a single
// ranked list. Both inputs carry scores already normalized to [0, 1];
// a document present on only one side keeps the other side's score at
// 0. Sorting is by combined score, ties by vector score, then corpus
// order. The output is truncated to limit.
func Fuse(fuzzyHits []fuzzy.Result, vectorHits []vector.Result, vectorWeight, fuzzyWeight float64, limit int, corpusOrder func(id string) (int, bool)) []FusedResult {
	if len(fuzzyHits) == 0 && len(vectorHits) == 0 {
		return []FusedResult{}
	}

	capacity := len(fuzzyHits) + len(vectorHits)
	byID := make(map[string]*FusedResult, capacity)

	get := func(id string) *FusedResult {
		if r, ok := byID[id]; ok {
			return r
		}
		ord := int(^uint(0) >> 1) // unknown docs sort last among ties
		if o, ok := corpusOrder(id); ok {
			ord = o
		}
		r := &FusedResult{ID: id, corpusOrder: ord}
		byID[id] = r
		return r
	}

	for _, hit := range fuzzyHits {
		get(hit.ID).FuzzyScore = clamp01(hit.Score)
	}
	for _, hit := range vectorHits {
		get(hit.Document.ID).VectorScore = clamp01(hit.Score)
	}

	results := make([]FusedResult, 0, len(byID))
	for _, r := range byID {
		r.Combined = r.VectorScore*vectorWeight + r.FuzzyScore*fuzzyWeight
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		if results[i].VectorScore != results[j].VectorScore {
			return results[i].VectorScore > results[j].VectorScore
		}
		return results[i].corpusOrder < results[j].corpusOrder
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
