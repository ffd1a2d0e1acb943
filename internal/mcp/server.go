package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apierrors "github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/search"
	"github.com/devapihub/apisearch/internal/store"
	"github.com/devapihub/apisearch/pkg/version"
)

// ServerName identifies this server to MCP clients.
const ServerName = "apisearch"

// Server exposes the search engine as MCP tools.
type Server struct {
	engine *search.Engine
	logger *slog.Logger
	mcp    *mcp.Server
}

// NewServer creates the MCP server and registers every tool.
func NewServer(engine *search.Engine) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}

	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Short(),
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// registerTools registers all search tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_projects",
		Description: "Search API projects by name or description. Tolerates typos and partial input.",
	}, s.handleSearchProjects)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_apis",
		Description: "Search API endpoints by name, path, method or description. Supports filtering by project, HTTP method and status.",
	}, s.handleSearchAPIs)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_tags",
		Description: "Search tags by name, optionally within one project.",
	}, s.handleSearchTags)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "global_search",
		Description: "Search several entity types at once; results come back grouped by type.",
	}, s.handleGlobalSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vector_search",
		Description: "Semantic search: finds entities related by meaning even when no keywords overlap.",
	}, s.handleVectorSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "hybrid_search",
		Description: "Best-quality search: combines keyword matching and semantic similarity into one ranked list.",
	}, s.handleHybridSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_search_suggestions",
		Description: "Suggest query completions from project and API names matching the typed text.",
	}, s.handleSuggestions)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_recent_items",
		Description: "List the most recently updated projects and APIs.",
	}, s.handleRecentItems)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "refresh_search_index",
		Description: "Refresh the search index from the catalog. With force, rebuilds even if still fresh.",
	}, s.handleRefresh)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "build_vector_index",
		Description: "Rebuild the vector index and report which embedding model is active.",
	}, s.handleBuildVectorIndex)

	s.logger.Debug("MCP tools registered", slog.Int("count", 10))
}

func entityTypes(names []string) ([]store.EntityType, error) {
	types := make([]store.EntityType, len(names))
	for i, name := range names {
		typ := store.EntityType(name)
		if !store.ValidEntityType(typ) {
			return nil, apierrors.New(apierrors.ErrCodeUnknownEntityType,
				"unknown entity type: "+name, nil)
		}
		types[i] = typ
	}
	return types, nil
}

func (s *Server) handleSearchProjects(ctx context.Context, _ *mcp.CallToolRequest, input SearchProjectsInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	resp, err := s.engine.SearchProjects(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleSearchAPIs(ctx context.Context, _ *mcp.CallToolRequest, input SearchAPIsInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	filter := search.APIFilter{
		ProjectID: input.ProjectID,
		Method:    input.Method,
		Status:    input.Status,
	}
	resp, err := s.engine.SearchAPIs(ctx, input.Query, filter, input.Limit)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleSearchTags(ctx context.Context, _ *mcp.CallToolRequest, input SearchTagsInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	resp, err := s.engine.SearchTags(ctx, input.Query, input.ProjectID, input.Limit)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleGlobalSearch(ctx context.Context, _ *mcp.CallToolRequest, input GlobalSearchInput) (
	*mcp.CallToolResult, *search.GlobalResponse, error,
) {
	types, err := entityTypes(input.Types)
	if err != nil {
		return nil, nil, MapError(err)
	}
	resp, err := s.engine.GlobalSearch(ctx, input.Query, types, input.Limit)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleVectorSearch(ctx context.Context, _ *mcp.CallToolRequest, input VectorSearchInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	resp, err := s.engine.VectorSearch(ctx, input.Query, input.Limit, input.Threshold)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleHybridSearch(ctx context.Context, _ *mcp.CallToolRequest, input HybridSearchInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	types, err := entityTypes(input.Types)
	if err != nil {
		return nil, nil, MapError(err)
	}
	resp, err := s.engine.HybridSearch(ctx, search.HybridParams{
		Query:        input.Query,
		Types:        types,
		Limit:        input.Limit,
		VectorWeight: input.VectorWeight,
		FuzzyWeight:  input.FuzzyWeight,
	})
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleSuggestions(ctx context.Context, _ *mcp.CallToolRequest, input SuggestionsInput) (
	*mcp.CallToolResult, *search.SuggestionsResponse, error,
) {
	resp, err := s.engine.Suggestions(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleRecentItems(ctx context.Context, _ *mcp.CallToolRequest, input RecentItemsInput) (
	*mcp.CallToolResult, *search.Response, error,
) {
	resp, err := s.engine.RecentItems(ctx, input.Limit)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleRefresh(ctx context.Context, _ *mcp.CallToolRequest, input RefreshInput) (
	*mcp.CallToolResult, *search.RefreshResponse, error,
) {
	resp, err := s.engine.RefreshIndex(ctx, input.Force)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

func (s *Server) handleBuildVectorIndex(ctx context.Context, _ *mcp.CallToolRequest, _ BuildVectorIndexInput) (
	*mcp.CallToolResult, *search.BuildResponse, error,
) {
	resp, err := s.engine.BuildVectorIndex(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, resp, nil
}

// CallTool dispatches a tool invocation by name with raw JSON
// arguments. The HTTP surface routes through this so both transports
// share one behavior.
func (s *Server) CallTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	unmarshal := func(v any) error {
		if err := json.Unmarshal(args, v); err != nil {
			return apierrors.ValidationError("invalid tool arguments", err)
		}
		return nil
	}

	switch name {
	case "search_projects":
		var in SearchProjectsInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		return s.engine.SearchProjects(ctx, in.Query, in.Limit)

	case "search_apis":
		var in SearchAPIsInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		filter := search.APIFilter{ProjectID: in.ProjectID, Method: in.Method, Status: in.Status}
		return s.engine.SearchAPIs(ctx, in.Query, filter, in.Limit)

	case "search_tags":
		var in SearchTagsInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		return s.engine.SearchTags(ctx, in.Query, in.ProjectID, in.Limit)

	case "global_search":
		var in GlobalSearchInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		types, err := entityTypes(in.Types)
		if err != nil {
			return nil, err
		}
		return s.engine.GlobalSearch(ctx, in.Query, types, in.Limit)

	case "vector_search":
		var in VectorSearchInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		return s.engine.VectorSearch(ctx, in.Query, in.Limit, in.Threshold)

	case "hybrid_search":
		var in HybridSearchInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		types, err := entityTypes(in.Types)
		if err != nil {
			return nil, err
		}
		return s.engine.HybridSearch(ctx, search.HybridParams{
			Query:        in.Query,
			Types:        types,
			Limit:        in.Limit,
			VectorWeight: in.VectorWeight,
			FuzzyWeight:  in.FuzzyWeight,
		})

	case "get_search_suggestions":
		var in SuggestionsInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		return s.engine.Suggestions(ctx, in.Query, in.Limit)

	case "get_recent_items":
		var in RecentItemsInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		return s.engine.RecentItems(ctx, in.Limit)

	case "refresh_search_index":
		var in RefreshInput
		if err := unmarshal(&in); err != nil {
			return nil, err
		}
		return s.engine.RefreshIndex(ctx, in.Force)

	case "build_vector_index":
		return s.engine.BuildVectorIndex(ctx)

	default:
		return nil, apierrors.New(apierrors.ErrCodeUnknownTool,
			"unknown tool: "+name, nil)
	}
}

// Serve runs the server over stdio until the context is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("MCP server stopped")
	return nil
}
