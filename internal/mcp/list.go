package mcp

// ToolInfo describes one registered tool for discovery endpoints.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func schema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// ListTools returns every tool with its JSON schema. The HTTP surface
// serves this so clients can discover tools without an MCP session.
func (s *Server) ListTools() []ToolInfo {
	typesProp := map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Entity types to search (projects, apis, tags, tables, issues). Defaults to projects, apis and tags.",
	}

	return []ToolInfo{
		{
			Name:        "search_projects",
			Description: "Search API projects by name or description. Tolerates typos and partial input.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query": prop("string", "Search text"),
				"limit": prop("integer", "Maximum results (default 10)"),
			}),
		},
		{
			Name:        "search_apis",
			Description: "Search API endpoints by name, path, method or description. Supports filtering by project, HTTP method and status.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query":     prop("string", "Search text"),
				"projectId": prop("string", "Restrict results to one project"),
				"method":    prop("string", "HTTP method filter, e.g. GET or POST"),
				"status":    prop("string", "Lifecycle status filter"),
				"limit":     prop("integer", "Maximum results (default 20)"),
			}),
		},
		{
			Name:        "search_tags",
			Description: "Search tags by name, optionally within one project.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query":     prop("string", "Search text"),
				"projectId": prop("string", "Restrict results to one project"),
				"limit":     prop("integer", "Maximum results (default 10)"),
			}),
		},
		{
			Name:        "global_search",
			Description: "Search several entity types at once; results come back grouped by type.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query": prop("string", "Search text"),
				"types": typesProp,
				"limit": prop("integer", "Maximum results per type (default 5)"),
			}),
		},
		{
			Name:        "vector_search",
			Description: "Semantic search: finds entities related by meaning even when no keywords overlap.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query":     prop("string", "Search text"),
				"limit":     prop("integer", "Maximum results (default 10)"),
				"threshold": prop("number", "Minimum cosine similarity, 0 to 1 (default 0.5)"),
			}),
		},
		{
			Name:        "hybrid_search",
			Description: "Best-quality search: combines keyword matching and semantic similarity into one ranked list.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query":        prop("string", "Search text"),
				"types":        typesProp,
				"limit":        prop("integer", "Maximum results (default 10)"),
				"vectorWeight": prop("number", "Weight of the semantic score (default 0.7)"),
				"fuzzyWeight":  prop("number", "Weight of the keyword score (default 0.3)"),
			}),
		},
		{
			Name:        "get_search_suggestions",
			Description: "Suggest query completions from project and API names matching the typed text.",
			InputSchema: schema([]string{"query"}, map[string]any{
				"query": prop("string", "Partial query text"),
				"limit": prop("integer", "Maximum suggestions (default 5)"),
			}),
		},
		{
			Name:        "get_recent_items",
			Description: "List the most recently updated projects and APIs.",
			InputSchema: schema(nil, map[string]any{
				"limit": prop("integer", "Maximum items (default 10)"),
			}),
		},
		{
			Name:        "refresh_search_index",
			Description: "Refresh the search index from the catalog. With force, rebuilds even if still fresh.",
			InputSchema: schema(nil, map[string]any{
				"force": prop("boolean", "Rebuild even if the index is still fresh"),
			}),
		},
		{
			Name:        "build_vector_index",
			Description: "Rebuild the vector index and report which embedding model is active.",
			InputSchema: schema(nil, map[string]any{}),
		},
	}
}
