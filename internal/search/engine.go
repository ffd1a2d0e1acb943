package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devapihub/apisearch/internal/embed"
	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/fuzzy"
	"github.com/devapihub/apisearch/internal/index"
	"github.com/devapihub/apisearch/internal/store"
	"github.com/devapihub/apisearch/internal/vector"
)

// Operation defaults, matching the tool schemas.
const (
	DefaultLimit           = 10
	DefaultAPILimit        = 20
	DefaultGlobalLimit     = 5
	DefaultSuggestionLimit = 5
	DefaultVectorThreshold = 0.5
)

// defaultGlobalTypes are searched when a caller does not narrow the
// entity types.
var defaultGlobalTypes = []store.EntityType{
	store.TypeProjects, store.TypeAPIs, store.TypeTags,
}

// Engine validates arguments, keeps the index fresh, and delegates to
// the snapshot's search sides.
type Engine struct {
	store   store.Store
	cache   *index.Cache
	factory *embed.Factory

	defaultLimit    int
	vectorWeight    float64
	fuzzyWeight     float64
	vectorThreshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default fusion weights.
func WithWeights(vectorWeight, fuzzyWeight float64) Option {
	return func(e *Engine) {
		e.vectorWeight = vectorWeight
		e.fuzzyWeight = fuzzyWeight
	}
}

// WithDefaultLimit overrides the result count used when a caller
// omits limit.
func WithDefaultLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.defaultLimit = limit
		}
	}
}

// WithVectorThreshold overrides the default similarity cutoff.
func WithVectorThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.vectorThreshold = threshold
	}
}

// NewEngine creates the search facade.
func NewEngine(st store.Store, cache *index.Cache, factory *embed.Factory, opts ...Option) *Engine {
	e := &Engine{
		store:           st,
		cache:           cache,
		factory:         factory,
		defaultLimit:    DefaultLimit,
		vectorWeight:    DefaultVectorWeight,
		fuzzyWeight:     DefaultFuzzyWeight,
		vectorThreshold: DefaultVectorThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return errors.New(errors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

// fuzzyResults converts matcher hits to Results, resolving entity
// fields from the snapshot corpus.
func fuzzyResults(snap *index.Snapshot, hits []fuzzy.Result) []Result {
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		doc, ok := snap.Document(hit.ID)
		if !ok {
			continue
		}
		r := resultFromDocument(doc)
		r.Score = hit.Score
		r.FuzzyScore = hit.Score
		r.MatchType = MatchFuzzy
		results = append(results, r)
	}
	return results
}

// SearchProjects matches projects by name and description.
func (e *Engine) SearchProjects(ctx context.Context, query string, limit int) (*Response, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, e.defaultLimit)

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := snap.FuzzySearch(ctx, store.TypeProjects, query, limit, nil)
	if err != nil {
		return nil, err
	}

	results := fuzzyResults(snap, hits)
	return &Response{Type: "project_search", Query: query, Total: len(results), Results: results}, nil
}

// APIFilter narrows API searches with exact-match constraints.
type APIFilter struct {
	ProjectID string
	Method    string
	Status    string
}

// SearchAPIs matches API endpoints by name, description, path and
// method, optionally filtered.
func (e *Engine) SearchAPIs(ctx context.Context, query string, filter APIFilter, limit int) (*Response, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, DefaultAPILimit)

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	filters := map[string]string{
		"projectId": filter.ProjectID,
		"method":    filter.Method,
		"status":    filter.Status,
	}
	hits, err := snap.FuzzySearch(ctx, store.TypeAPIs, query, limit, filters)
	if err != nil {
		return nil, err
	}

	results := fuzzyResults(snap, hits)
	return &Response{Type: "api_search", Query: query, Total: len(results), Results: results}, nil
}

// SearchTags matches tags by name, optionally scoped to a project.
func (e *Engine) SearchTags(ctx context.Context, query, projectID string, limit int) (*Response, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, e.defaultLimit)

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := snap.FuzzySearch(ctx, store.TypeTags, query, limit, map[string]string{"projectId": projectID})
	if err != nil {
		return nil, err
	}

	results := fuzzyResults(snap, hits)
	return &Response{Type: "tag_search", Query: query, Total: len(results), Results: results}, nil
}

// GlobalSearch fans the query out across entity types, grouping
// results per type.
func (e *Engine) GlobalSearch(ctx context.Context, query string, types []store.EntityType, limit int) (*GlobalResponse, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, DefaultGlobalLimit)
	if len(types) == 0 {
		types = defaultGlobalTypes
	}
	for _, typ := range types {
		if !store.ValidEntityType(typ) {
			return nil, errors.New(errors.ErrCodeUnknownEntityType,
				"unknown entity type: "+string(typ), nil)
		}
	}

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]GlobalGroup, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, typ := range types {
		g.Go(func() error {
			hits, err := snap.FuzzySearch(gctx, typ, query, limit, nil)
			if err != nil {
				return err
			}
			results := fuzzyResults(snap, hits)
			groups[i] = GlobalGroup{Type: typ, Total: len(results), Results: results}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, grp := range groups {
		total += grp.Total
	}
	return &GlobalResponse{Type: "global_search", Query: query, Total: total, Groups: groups}, nil
}

// VectorSearch runs pure semantic retrieval across all entity types.
func (e *Engine) VectorSearch(ctx context.Context, query string, limit int, threshold float64) (*Response, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, e.defaultLimit)
	if threshold <= 0 {
		threshold = e.vectorThreshold
	}

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	queryVec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := e.vectorFanOut(ctx, snap, store.AllEntityTypes(), queryVec, limit, threshold)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		r := resultFromDocument(hit.Document)
		r.Score = hit.Score
		r.VectorScore = hit.Score
		r.MatchType = MatchVector
		results = append(results, r)
	}
	return &Response{Type: "vector_search", Query: query, Total: len(results), Results: results}, nil
}

// HybridParams are the arguments of a hybrid search.
type HybridParams struct {
	Query        string
	Types        []store.EntityType
	Limit        int
	VectorWeight float64
	FuzzyWeight  float64
}

// HybridSearch fetches fuzzy and vector candidates in parallel and
// fuses them by weighted score sum.
func (e *Engine) HybridSearch(ctx context.Context, params HybridParams) (*Response, error) {
	if err := validateQuery(params.Query); err != nil {
		return nil, err
	}
	limit := normalizeLimit(params.Limit, e.defaultLimit)
	types := params.Types
	if len(types) == 0 {
		types = defaultGlobalTypes
	}
	for _, typ := range types {
		if !store.ValidEntityType(typ) {
			return nil, errors.New(errors.ErrCodeUnknownEntityType,
				"unknown entity type: "+string(typ), nil)
		}
	}

	vectorWeight := params.VectorWeight
	fuzzyWeight := params.FuzzyWeight
	if vectorWeight == 0 && fuzzyWeight == 0 {
		vectorWeight = e.vectorWeight
		fuzzyWeight = e.fuzzyWeight
	}

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	// Over-fetch both sides so fusion has enough candidates.
	candidates := limit * 2

	var (
		mu         sync.Mutex
		fuzzyHits  []fuzzy.Result
		vectorHits []vector.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, typ := range types {
			hits, err := snap.FuzzySearch(gctx, typ, params.Query, candidates, nil)
			if err != nil {
				return err
			}
			mu.Lock()
			fuzzyHits = append(fuzzyHits, hits...)
			mu.Unlock()
		}
		return nil
	})
	g.Go(func() error {
		queryVec, err := e.embedQuery(gctx, params.Query)
		if err != nil {
			return err
		}
		// Fusion weighs low-similarity hits down on its own, so no
		// similarity cutoff here.
		hits, err := e.vectorFanOut(gctx, snap, types, queryVec, candidates, 0)
		if err != nil {
			return err
		}
		mu.Lock()
		vectorHits = append(vectorHits, hits...)
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(fuzzyHits, vectorHits, vectorWeight, fuzzyWeight, limit, func(id string) (int, bool) {
		return snap.Order(id)
	})

	results := make([]Result, 0, len(fused))
	for _, f := range fused {
		doc, ok := snap.Document(f.ID)
		if !ok {
			continue
		}
		r := resultFromDocument(doc)
		r.Score = f.Combined
		r.VectorScore = f.VectorScore
		r.FuzzyScore = f.FuzzyScore
		r.MatchType = f.MatchType()
		results = append(results, r)
	}
	return &Response{Type: "hybrid_search", Query: params.Query, Total: len(results), Results: results}, nil
}

// embedQuery resolves the encoder and embeds one query string.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	encoder, err := e.factory.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := encoder.Embed(ctx, query)
	if err != nil {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed, "failed to embed query", err)
	}
	return vec, nil
}

// vectorFanOut searches several per-type vector stores in parallel.
func (e *Engine) vectorFanOut(ctx context.Context, snap *index.Snapshot, types []store.EntityType, queryVec []float32, limit int, threshold float64) ([]vector.Result, error) {
	perType := make([][]vector.Result, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, typ := range types {
		g.Go(func() error {
			hits, err := snap.VectorSearch(gctx, typ, queryVec, limit, threshold)
			if err != nil {
				return err
			}
			perType[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []vector.Result
	for _, hits := range perType {
		all = append(all, hits...)
	}
	return all, nil
}

// Suggestions returns query completions drawn from project and API
// names that contain the typed prefix.
func (e *Engine) Suggestions(ctx context.Context, query string, limit int) (*SuggestionsResponse, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit, DefaultSuggestionLimit)

	snap, err := e.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	seen := make(map[string]bool)
	suggestions := make([]string, 0, limit)

	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || len(suggestions) >= limit {
			return
		}
		key := strings.ToLower(candidate)
		if seen[key] || !strings.Contains(key, needle) {
			return
		}
		seen[key] = true
		suggestions = append(suggestions, candidate)
	}

	for _, typ := range []store.EntityType{store.TypeProjects, store.TypeAPIs} {
		hits, err := snap.FuzzySearch(ctx, typ, query, limit*2, nil)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			name := hit.Fields["name"]
			add(name)
			for _, word := range strings.Fields(name) {
				add(word)
			}
		}
	}

	return &SuggestionsResponse{Type: "search_suggestions", Query: query, Suggestions: suggestions}, nil
}

// RecentItems returns the most recently updated projects and APIs,
// half of each, newest first.
func (e *Engine) RecentItems(ctx context.Context, limit int) (*Response, error) {
	limit = normalizeLimit(limit, e.defaultLimit)

	projectN := (limit + 1) / 2
	apiN := limit / 2

	projects, err := e.store.RecentProjects(ctx, projectN)
	if err != nil {
		return nil, err
	}
	apis, err := e.store.RecentAPIs(ctx, apiN)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(projects)+len(apis))
	for _, p := range projects {
		results = append(results, Result{
			ID:          p.ID,
			Type:        store.TypeProjects,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	for _, a := range apis {
		results = append(results, Result{
			ID:          a.ID,
			Type:        store.TypeAPIs,
			Name:        a.Name,
			Description: a.Description,
			Path:        a.Path,
			Method:      a.Method,
			ProjectID:   a.ProjectID,
			Status:      a.Status,
			UpdatedAt:   a.UpdatedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})

	return &Response{Type: "recent_items", Total: len(results), Results: results}, nil
}

// RefreshIndex rebuilds the search index. With force, the rebuild
// runs even inside the TTL window.
func (e *Engine) RefreshIndex(ctx context.Context, force bool) (*RefreshResponse, error) {
	var err error
	if force {
		_, err = e.cache.Refresh(ctx)
	} else {
		_, err = e.cache.Get(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &RefreshResponse{Type: "index_refresh", Success: true, Timestamp: time.Now()}, nil
}

// BuildVectorIndex rebuilds the index and reports the embedding setup
// that produced it.
func (e *Engine) BuildVectorIndex(ctx context.Context) (*BuildResponse, error) {
	snap, err := e.cache.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	stats := snap.EncoderStats()
	return &BuildResponse{
		Type:          "vector_index_build",
		DocumentCount: snap.DocumentCount(),
		UseFallback:   stats.UseFallback,
		Model:         stats.Model,
	}, nil
}

// IndexInfo reports the live snapshot for health endpoints, or zero
// values before the first build.
func (e *Engine) IndexInfo() (builtAt time.Time, documentCount int) {
	if snap := e.cache.Current(); snap != nil {
		return snap.BuiltAt(), snap.DocumentCount()
	}
	return time.Time{}, 0
}
