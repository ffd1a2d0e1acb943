// Package search orchestrates hybrid retrieval: fuzzy keyword
// matching and cosine vector search fused into one ranked list. The
// Engine is the single entry point for every search operation the
// tool surfaces expose.
package search

import (
	"time"

	"github.com/devapihub/apisearch/internal/store"
)

// Match type labels for result provenance.
const (
	MatchFuzzy  = "fuzzy"
	MatchVector = "vector"
	MatchHybrid = "hybrid"
)

// Result is a single ranked hit. Fields not applicable to the entity
// type stay empty.
type Result struct {
	ID          string           `json:"id"`
	Type        store.EntityType `json:"type"`
	Name        string           `json:"name,omitempty"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Path        string           `json:"path,omitempty"`
	Method      string           `json:"method,omitempty"`
	ProjectID   string           `json:"projectId,omitempty"`
	Status      string           `json:"status,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt,omitzero"`

	Score       float64 `json:"score"`
	VectorScore float64 `json:"vectorScore,omitempty"`
	FuzzyScore  float64 `json:"fuzzyScore,omitempty"`
	MatchType   string  `json:"matchType,omitempty"`
}

// Response is the envelope every search operation returns.
type Response struct {
	Type    string   `json:"type"`
	Query   string   `json:"query,omitempty"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// GlobalGroup is one entity type's slice of a global search.
type GlobalGroup struct {
	Type    store.EntityType `json:"type"`
	Total   int              `json:"total"`
	Results []Result         `json:"results"`
}

// GlobalResponse groups global search results by entity type.
type GlobalResponse struct {
	Type   string        `json:"type"`
	Query  string        `json:"query"`
	Total  int           `json:"total"`
	Groups []GlobalGroup `json:"groups"`
}

// SuggestionsResponse lists query completions.
type SuggestionsResponse struct {
	Type        string   `json:"type"`
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// RefreshResponse reports an index refresh.
type RefreshResponse struct {
	Type      string    `json:"type"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// BuildResponse reports a vector index build.
type BuildResponse struct {
	Type          string `json:"type"`
	DocumentCount int    `json:"documentCount"`
	UseFallback   bool   `json:"useFallback"`
	Model         string `json:"model"`
}

// resultFromDocument projects corpus document metadata into a Result.
func resultFromDocument(doc store.Document) Result {
	r := Result{ID: doc.ID, Type: doc.Type()}

	meta := doc.Metadata
	if s, ok := meta["name"].(string); ok {
		r.Name = s
	}
	if s, ok := meta["title"].(string); ok {
		r.Title = s
	}
	if s, ok := meta["description"].(string); ok {
		r.Description = s
	}
	if s, ok := meta["comment"].(string); ok && r.Description == "" {
		r.Description = s
	}
	if s, ok := meta["path"].(string); ok {
		r.Path = s
	}
	if s, ok := meta["method"].(string); ok {
		r.Method = s
	}
	if s, ok := meta["projectId"].(string); ok {
		r.ProjectID = s
	}
	if s, ok := meta["status"].(string); ok {
		r.Status = s
	}
	if ts, ok := meta["updatedAt"].(time.Time); ok {
		r.UpdatedAt = ts
	}
	return r
}
