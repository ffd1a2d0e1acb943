// Package fuzzy provides typo-tolerant keyword matching over entity
// fields. Each entity type gets its own in-memory bleve index with
// field boosts tuned for it, so a hit on an API name outweighs the
// same hit buried in a description.
package fuzzy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/store"
)

// Document is one indexable entity. Fields hold the searchable text
// plus exact-match attributes used for post-search filtering.
type Document struct {
	ID     string
	Fields map[string]string
}

// Result is a single match with its normalized score.
type Result struct {
	ID string
	// Score is normalized to [0, 1] within the result set; the best
	// hit scores 1.0.
	Score  float64
	Fields map[string]string
}

// fieldBoosts weight per-field matches when scoring a query.
var fieldBoosts = map[store.EntityType]map[string]float64{
	store.TypeProjects: {"name": 2.0, "description": 1.0},
	store.TypeAPIs:     {"name": 2.0, "path": 1.5, "method": 1.0, "description": 1.0},
	store.TypeTags:     {"name": 1.0},
	store.TypeTables:   {"name": 2.0, "comment": 1.0},
	store.TypeIssues:   {"title": 2.0, "description": 1.0},
}

// scoreThresholds drop weak matches after normalization. Tags use a
// lower bar because they are single short strings.
var scoreThresholds = map[store.EntityType]float64{
	store.TypeProjects: 0.3,
	store.TypeAPIs:     0.3,
	store.TypeTags:     0.2,
	store.TypeTables:   0.3,
	store.TypeIssues:   0.3,
}

// Matcher holds one in-memory index per entity type.
type Matcher struct {
	mu      sync.RWMutex
	indexes map[store.EntityType]bleve.Index
	closed  bool
}

// NewMatcher creates empty indexes for every entity type.
func NewMatcher() (*Matcher, error) {
	indexes := make(map[store.EntityType]bleve.Index, len(fieldBoosts))

	for _, typ := range store.AllEntityTypes() {
		idx, err := bleve.NewMemOnly(buildMapping(typ))
		if err != nil {
			for _, open := range indexes {
				_ = open.Close()
			}
			return nil, errors.InternalError(
				fmt.Sprintf("failed to create %s index", typ), err)
		}
		indexes[typ] = idx
	}

	return &Matcher{indexes: indexes}, nil
}

// buildMapping maps the searchable fields of one entity type.
func buildMapping(typ store.EntityType) mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	for field := range fieldBoosts[typ] {
		docMapping.AddFieldMappingsAt(field, bleve.NewTextFieldMapping())
	}

	// Filter attributes are stored verbatim but excluded from the
	// composite _all field, so they never influence scoring.
	for _, field := range []string{"projectId", "status", "priority", "color"} {
		fm := bleve.NewTextFieldMapping()
		fm.Index = false
		fm.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Index replaces the documents of one entity type.
func (m *Matcher) Index(ctx context.Context, typ store.EntityType, docs []Document) error {
	if !store.ValidEntityType(typ) {
		return errors.New(errors.ErrCodeUnknownEntityType,
			fmt.Sprintf("unknown entity type: %s", typ), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.InternalError("matcher is closed", nil)
	}

	idx := m.indexes[typ]
	batch := idx.NewBatch()
	for _, doc := range docs {
		data := make(map[string]any, len(doc.Fields))
		for k, v := range doc.Fields {
			data[k] = v
		}
		if err := batch.Index(doc.ID, data); err != nil {
			return errors.InternalError(
				fmt.Sprintf("failed to index document %s", doc.ID), err)
		}
	}

	if err := idx.Batch(batch); err != nil {
		return errors.InternalError("failed to execute index batch", err)
	}
	return nil
}

// Search matches query against one entity type. Results below the
// type's threshold are dropped; filters are exact-match constraints
// on stored fields, applied after scoring.
func (m *Matcher) Search(ctx context.Context, typ store.EntityType, queryStr string, limit int, filters map[string]string) ([]Result, error) {
	if !store.ValidEntityType(typ) {
		return nil, errors.New(errors.ErrCodeUnknownEntityType,
			fmt.Sprintf("unknown entity type: %s", typ), nil)
	}
	if strings.TrimSpace(queryStr) == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		return []Result{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errors.InternalError("matcher is closed", nil)
	}

	// Over-fetch so post-search filtering still fills the limit.
	fetchSize := limit * 3
	req := bleve.NewSearchRequestOptions(m.buildQuery(typ, queryStr), fetchSize, 0, false)
	req.Fields = []string{"*"}

	res, err := m.indexes[typ].SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.New(errors.ErrCodeSearchFailed,
			fmt.Sprintf("fuzzy search failed for %s", typ), err)
	}

	if len(res.Hits) == 0 {
		return []Result{}, nil
	}

	maxScore := res.Hits[0].Score
	threshold := scoreThresholds[typ]

	results := make([]Result, 0, limit)
	for _, hit := range res.Hits {
		score := 0.0
		if maxScore > 0 {
			score = hit.Score / maxScore
		}
		if score < threshold {
			continue
		}

		fields := make(map[string]string, len(hit.Fields))
		for k, v := range hit.Fields {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}

		if !matchesFilters(fields, filters) {
			continue
		}

		results = append(results, Result{ID: hit.ID, Score: score, Fields: fields})
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// buildQuery disjoins, per boosted field, a fuzzy match query for
// typo tolerance and a prefix query so partial identifiers like
// "create" still reach "createUser".
func (m *Matcher) buildQuery(typ store.EntityType, queryStr string) query.Query {
	boosts := fieldBoosts[typ]
	prefix := strings.ToLower(strings.TrimSpace(queryStr))

	queries := make([]query.Query, 0, 2*len(boosts))
	for field, boost := range boosts {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(field)
		mq.SetBoost(boost)
		mq.SetFuzziness(1)
		queries = append(queries, mq)

		pq := bleve.NewPrefixQuery(prefix)
		pq.SetField(field)
		pq.SetBoost(boost)
		queries = append(queries, pq)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

func matchesFilters(fields, filters map[string]string) bool {
	for k, want := range filters {
		if want == "" {
			continue
		}
		if !strings.EqualFold(fields[k], want) {
			return false
		}
	}
	return true
}

// Count returns the number of documents indexed for one type.
func (m *Matcher) Count(typ store.EntityType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0
	}
	idx, ok := m.indexes[typ]
	if !ok {
		return 0
	}
	n, _ := idx.DocCount()
	return int(n)
}

// Close closes all indexes.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	for typ, idx := range m.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s index: %w", typ, err)
		}
	}
	return firstErr
}
