package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devapihub/apisearch/internal/corpus"
	"github.com/devapihub/apisearch/internal/embed"
	apierrors "github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/index"
	"github.com/devapihub/apisearch/internal/search"
	"github.com/devapihub/apisearch/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.ApplySeed(context.Background(), store.Seed{
		Projects: []store.Project{
			{ID: "p1", Name: "用户中心", Description: "账号与权限管理", Status: "active", UpdatedAt: base.Add(time.Hour)},
		},
		APIs: []store.API{
			{ID: "a1", ProjectID: "p1", Name: "创建用户", Description: "新建一个用户", Path: "/users", Method: "POST", Status: "published", UpdatedAt: base},
		},
		Tags: []store.Tag{
			{ID: "t1", ProjectID: "p1", Name: "用户", Color: "#0f0"},
		},
	}))

	factory := embed.NewFactory(embed.FactoryConfig{Provider: "lexical", Dimensions: 128})
	t.Cleanup(func() { _ = factory.Close() })

	cb, err := corpus.NewBuilder(s)
	require.NoError(t, err)
	builder := index.NewBuilder(cb, factory)
	cache := index.NewCache(time.Minute, builder.Build)

	srv, err := NewServer(search.NewEngine(s, cache, factory))
	require.NoError(t, err)
	return srv
}

func TestNewServerRequiresEngine(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
}

func TestCallToolSearchProjects(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.CallTool(context.Background(), "search_projects",
		json.RawMessage(`{"query": "用户"}`))
	require.NoError(t, err)

	resp, ok := out.(*search.Response)
	require.True(t, ok)
	assert.Equal(t, "project_search", resp.Type)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "project-p1", resp.Results[0].ID)
}

func TestCallToolSearchAPIsWithFilter(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.CallTool(context.Background(), "search_apis",
		json.RawMessage(`{"query": "用户", "method": "post"}`))
	require.NoError(t, err)

	resp := out.(*search.Response)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "api-a1", resp.Results[0].ID)
}

func TestCallToolHybridSearch(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.CallTool(context.Background(), "hybrid_search",
		json.RawMessage(`{"query": "创建用户", "limit": 5}`))
	require.NoError(t, err)

	resp := out.(*search.Response)
	assert.Equal(t, "hybrid_search", resp.Type)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "api-a1", resp.Results[0].ID)
}

func TestCallToolRefreshIndex(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.CallTool(context.Background(), "refresh_search_index",
		json.RawMessage(`{"force": true}`))
	require.NoError(t, err)

	resp := out.(*search.RefreshResponse)
	assert.True(t, resp.Success)
	assert.Equal(t, "index_refresh", resp.Type)
}

func TestCallToolBuildVectorIndex(t *testing.T) {
	srv := newTestServer(t)

	out, err := srv.CallTool(context.Background(), "build_vector_index", nil)
	require.NoError(t, err)

	resp := out.(*search.BuildResponse)
	assert.Equal(t, 3, resp.DocumentCount)
	assert.True(t, resp.UseFallback)
}

func TestCallToolUnknownName(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "does_not_exist", nil)
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodeUnknownTool, apierrors.GetCode(err))
}

func TestCallToolInvalidArguments(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "search_projects",
		json.RawMessage(`{"query": 42}`))
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodeInvalidInput, apierrors.GetCode(err))
}

func TestCallToolUnknownEntityType(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "global_search",
		json.RawMessage(`{"query": "用户", "types": ["bogus"]}`))
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrCodeUnknownEntityType, apierrors.GetCode(err))
}

func TestListToolsMatchesRegistration(t *testing.T) {
	srv := newTestServer(t)

	tools := srv.ListTools()
	require.Len(t, tools, 10)

	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema["type"], tool.Name)
	}

	for _, want := range []string{
		"search_projects", "search_apis", "search_tags",
		"global_search", "vector_search", "hybrid_search",
		"get_search_suggestions", "get_recent_items",
		"refresh_search_index", "build_vector_index",
	} {
		assert.True(t, names[want], want)
	}
}
