package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devapihub/apisearch/internal/fuzzy"
	"github.com/devapihub/apisearch/internal/store"
	"github.com/devapihub/apisearch/internal/vector"
)

func vecHit(id string, score float64) vector.Result {
	return vector.Result{Document: store.Document{ID: id}, Score: score}
}

func orderOf(ids ...string) func(string) (int, bool) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	return func(id string) (int, bool) {
		i, ok := pos[id]
		return i, ok
	}
}

func TestFuseWeightedSum(t *testing.T) {
	fuzzyHits := []fuzzy.Result{
		{ID: "api-1", Score: 0.8},
	}
	vectorHits := []vector.Result{
		vecHit("api-1", 0.1),
		vecHit("api-2", 0.9),
	}

	fused := Fuse(fuzzyHits, vectorHits, 0.7, 0.3, 5, orderOf("api-1", "api-2"))
	require.Len(t, fused, 2)

	// api-2: 0.7*0.9 + 0.3*0 = 0.63; api-1: 0.7*0.1 + 0.3*0.8 = 0.31
	assert.Equal(t, "api-2", fused[0].ID)
	assert.InDelta(t, 0.63, fused[0].Combined, 1e-9)
	assert.Equal(t, "api-1", fused[1].ID)
	assert.InDelta(t, 0.31, fused[1].Combined, 1e-9)
}

func TestFuseAbsentSideScoresZero(t *testing.T) {
	fused := Fuse(
		[]fuzzy.Result{{ID: "only-fuzzy", Score: 0.5}},
		[]vector.Result{vecHit("only-vector", 0.5)},
		0.7, 0.3, 10, orderOf("only-fuzzy", "only-vector"),
	)
	require.Len(t, fused, 2)

	byID := map[string]FusedResult{}
	for _, f := range fused {
		byID[f.ID] = f
	}

	of := byID["only-fuzzy"]
	assert.Zero(t, of.VectorScore)
	assert.InDelta(t, 0.3*0.5, of.Combined, 1e-9)
	assert.Equal(t, MatchFuzzy, of.MatchType())

	ov := byID["only-vector"]
	assert.Zero(t, ov.FuzzyScore)
	assert.InDelta(t, 0.7*0.5, ov.Combined, 1e-9)
	assert.Equal(t, MatchVector, ov.MatchType())
}

func TestFuseTieBreaks(t *testing.T) {
	// Equal combined scores: higher vector score wins.
	fused := Fuse(
		[]fuzzy.Result{{ID: "a", Score: 1.0}},
		[]vector.Result{vecHit("b", 0.6)},
		0.5, 0.3, 10, orderOf("a", "b"),
	)
	require.Len(t, fused, 2)
	assert.InDelta(t, fused[0].Combined, fused[1].Combined, 1e-9)
	assert.Equal(t, "b", fused[0].ID, "vector score breaks the combined tie")

	// Fully tied results fall back to corpus order.
	fused = Fuse(
		[]fuzzy.Result{{ID: "second", Score: 0.5}, {ID: "first", Score: 0.5}},
		nil,
		0.7, 0.3, 10, orderOf("first", "second"),
	)
	require.Len(t, fused, 2)
	assert.Equal(t, "first", fused[0].ID)
	assert.Equal(t, "second", fused[1].ID)
}

func TestFuseDeduplicatesByID(t *testing.T) {
	fused := Fuse(
		[]fuzzy.Result{{ID: "doc", Score: 0.8}},
		[]vector.Result{vecHit("doc", 0.9)},
		0.7, 0.3, 10, orderOf("doc"),
	)
	require.Len(t, fused, 1)

	f := fused[0]
	assert.InDelta(t, 0.7*0.9+0.3*0.8, f.Combined, 1e-9)
	assert.Equal(t, MatchHybrid, f.MatchType())
	assert.InDelta(t, 0.9, f.VectorScore, 1e-9)
	assert.InDelta(t, 0.8, f.FuzzyScore, 1e-9)
}

func TestFuseClampsScores(t *testing.T) {
	fused := Fuse(
		[]fuzzy.Result{{ID: "doc", Score: 1.5}},
		[]vector.Result{vecHit("doc", -0.2)},
		0.7, 0.3, 10, orderOf("doc"),
	)
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0, fused[0].FuzzyScore, 1e-9)
	assert.Zero(t, fused[0].VectorScore)
}

func TestFuseTruncatesToLimit(t *testing.T) {
	fuzzyHits := []fuzzy.Result{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.8},
		{ID: "c", Score: 0.7},
	}
	fused := Fuse(fuzzyHits, nil, 0.7, 0.3, 2, orderOf("a", "b", "c"))
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID)
	assert.Equal(t, "b", fused[1].ID)
}

func TestFuseEmptyInputs(t *testing.T) {
	fused := Fuse(nil, nil, 0.7, 0.3, 10, orderOf())
	assert.Empty(t, fused)
}

func TestFuseWeightsNeedNotSumToOne(t *testing.T) {
	fused := Fuse(
		[]fuzzy.Result{{ID: "doc", Score: 1.0}},
		[]vector.Result{vecHit("doc", 1.0)},
		1.0, 1.0, 10, orderOf("doc"),
	)
	require.Len(t, fused, 1)
	assert.InDelta(t, 2.0, fused[0].Combined, 1e-9)
}
