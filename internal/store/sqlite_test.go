package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSeed() Seed {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return Seed{
		Projects: []Project{
			{ID: "p1", Name: "用户中心", Description: "用户管理平台", Status: "active", UpdatedAt: base},
			{ID: "p2", Name: "订单系统", Description: "订单与支付", Status: "active", UpdatedAt: base.Add(time.Hour)},
		},
		APIs: []API{
			{ID: "a1", ProjectID: "p1", Name: "创建用户", Description: "新建一个用户", Path: "/users", Method: "POST", Status: "released", UpdatedAt: base},
			{ID: "a2", ProjectID: "p1", Name: "查询用户", Description: "按 id 查询用户", Path: "/users/{id}", Method: "GET", Status: "developing", UpdatedAt: base.Add(2 * time.Hour)},
			{ID: "a3", ProjectID: "p2", Name: "创建订单", Description: "下单接口", Path: "/orders", Method: "POST", Status: "released", UpdatedAt: base.Add(time.Hour)},
		},
		Tags: []Tag{
			{ID: "t1", ProjectID: "p1", Name: "用户", Color: "#ff0000"},
			{ID: "t2", ProjectID: "p2", Name: "订单", Color: "#00ff00"},
		},
		Tables: []Table{
			{ID: "tb1", ProjectID: "p1", Name: "users", Comment: "用户表"},
		},
		Issues: []Issue{
			{ID: "i1", ProjectID: "p1", Title: "登录接口超时", Description: "高并发下超时", Status: "open", Priority: "high"},
		},
	}
}

func TestSQLiteStore_BulkFetch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ApplySeed(ctx, testSeed()))

	projects, err := s.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "用户中心", projects[0].Name)
	assert.Equal(t, "active", projects[0].Status)

	apis, err := s.APIs(ctx)
	require.NoError(t, err)
	require.Len(t, apis, 3)
	assert.Equal(t, "POST", apis[0].Method)
	assert.Equal(t, "/users", apis[0].Path)

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "用户表", tables[0].Comment)

	issues, err := s.Issues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "high", issues[0].Priority)
}

func TestSQLiteStore_RecentOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ApplySeed(ctx, testSeed()))

	recent, err := s.RecentProjects(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "p2", recent[0].ID, "newest update first")

	recentAPIs, err := s.RecentAPIs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recentAPIs, 2)
	assert.Equal(t, "a2", recentAPIs[0].ID)
}

func TestSQLiteStore_EmptyDatabase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	projects, err := s.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestSQLiteStore_SeedReplacesByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ApplySeed(ctx, testSeed()))

	// Re-seeding the same ids must not duplicate rows.
	require.NoError(t, s.ApplySeed(ctx, testSeed()))

	apis, err := s.APIs(ctx)
	require.NoError(t, err)
	assert.Len(t, apis, 3)
}

func TestSQLiteStore_ClosedStoreFails(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Projects(context.Background())
	assert.Error(t, err)

	// Double close is a no-op.
	assert.NoError(t, s.Close())
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplySeed(context.Background(), testSeed()))
	apis, err := s.APIs(context.Background())
	require.NoError(t, err)
	assert.Len(t, apis, 3)
}

func TestDocument_Type(t *testing.T) {
	d := Document{ID: "api-a1", Metadata: map[string]any{"type": "apis"}}
	assert.Equal(t, TypeAPIs, d.Type())

	assert.Equal(t, EntityType(""), Document{ID: "x"}.Type())
}

func TestValidEntityType(t *testing.T) {
	for _, et := range AllEntityTypes() {
		assert.True(t, ValidEntityType(et))
	}
	assert.False(t, ValidEntityType("users"))
}
