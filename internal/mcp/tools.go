package mcp

// Typed tool inputs. The jsonschema tags become the tool's input
// schema surfaced to MCP clients.

// SearchProjectsInput selects projects by approximate name match.
type SearchProjectsInput struct {
	Query string `json:"query" jsonschema:"the project name or description to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchAPIsInput selects API endpoints, optionally filtered.
type SearchAPIsInput struct {
	Query     string `json:"query" jsonschema:"the API name, path or description to search for"`
	ProjectID string `json:"projectId,omitempty" jsonschema:"restrict results to one project"`
	Method    string `json:"method,omitempty" jsonschema:"restrict results to one HTTP method, e.g. GET or POST"`
	Status    string `json:"status,omitempty" jsonschema:"restrict results to one lifecycle status"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
}

// SearchTagsInput selects tags by name.
type SearchTagsInput struct {
	Query     string `json:"query" jsonschema:"the tag name to search for"`
	ProjectID string `json:"projectId,omitempty" jsonschema:"restrict results to one project"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// GlobalSearchInput fans a query out across entity types.
type GlobalSearchInput struct {
	Query string   `json:"query" jsonschema:"the text to search for"`
	Types []string `json:"types,omitempty" jsonschema:"entity types to search: projects, apis, tags, tables, issues; default projects, apis, tags"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum results per type, default 5"`
}

// VectorSearchInput runs pure semantic search.
type VectorSearchInput struct {
	Query     string  `json:"query" jsonschema:"the text to search for by meaning"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity between 0 and 1, default 0.5"`
}

// HybridSearchInput combines fuzzy and semantic search.
type HybridSearchInput struct {
	Query        string   `json:"query" jsonschema:"the text to search for"`
	Types        []string `json:"types,omitempty" jsonschema:"entity types to search; default projects, apis, tags"`
	Limit        int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	VectorWeight float64  `json:"vectorWeight,omitempty" jsonschema:"weight of the semantic score, default 0.7"`
	FuzzyWeight  float64  `json:"fuzzyWeight,omitempty" jsonschema:"weight of the keyword score, default 0.3"`
}

// SuggestionsInput asks for query completions.
type SuggestionsInput struct {
	Query string `json:"query" jsonschema:"the partial text typed so far"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions, default 5"`
}

// RecentItemsInput asks for recently updated entities.
type RecentItemsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of items, default 10"`
}

// RefreshInput triggers an index refresh.
type RefreshInput struct {
	Force bool `json:"force,omitempty" jsonschema:"rebuild even if the current index is still fresh"`
}

// BuildVectorIndexInput triggers an explicit vector index build.
type BuildVectorIndexInput struct{}
