package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devapihub/apisearch/internal/corpus"
	"github.com/devapihub/apisearch/internal/embed"
	"github.com/devapihub/apisearch/internal/index"
	mcpapi "github.com/devapihub/apisearch/internal/mcp"
	"github.com/devapihub/apisearch/internal/search"
	"github.com/devapihub/apisearch/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.ApplySeed(context.Background(), store.Seed{
		Projects: []store.Project{
			{ID: "p1", Name: "用户中心", Description: "账号与权限管理", Status: "active", UpdatedAt: base},
		},
		APIs: []store.API{
			{ID: "a1", ProjectID: "p1", Name: "创建用户", Path: "/users", Method: "POST", Status: "published", UpdatedAt: base},
		},
	}))

	factory := embed.NewFactory(embed.FactoryConfig{Provider: "lexical", Dimensions: 128})
	t.Cleanup(func() { _ = factory.Close() })

	cb, err := corpus.NewBuilder(s)
	require.NoError(t, err)
	builder := index.NewBuilder(cb, factory)
	cache := index.NewCache(time.Minute, builder.Build)
	engine := search.NewEngine(s, cache, factory)

	tools, err := mcpapi.NewServer(engine)
	require.NoError(t, err)

	return NewServer(engine, tools).Router()
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
		Index  struct {
			DocumentCount int `json:"documentCount"`
		} `json:"index"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Uptime)
	assert.Equal(t, 0, body.Index.DocumentCount, "index not built yet")
}

func TestListToolsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/tools", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tools, 10)
	assert.Equal(t, "search_projects", body.Tools[0].Name)
	assert.NotEmpty(t, body.Tools[0].InputSchema)
}

func TestCallToolEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp/tools/search_projects",
		strings.NewReader(`{"arguments": {"query": "用户"}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "project_search", resp.Type)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "project-p1", resp.Results[0].ID)
}

func TestCallToolEndpointNoBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp/tools/get_recent_items", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCallToolEndpointUnknownTool(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp/tools/nope",
		strings.NewReader(`{"arguments": {}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
}

func TestCallToolEndpointEmptyQuery(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp/tools/search_projects",
		strings.NewReader(`{"arguments": {"query": "  "}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_params", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestCallToolEndpointMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp/tools/search_projects",
		strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body["error"])
}
