// Package corpus projects catalog entities into the uniform Document
// shape consumed by the fuzzy and vector indexes.
package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/store"
)

// Builder pulls raw entity rows and renders them as Documents.
// Rendering is deterministic: identical rows always produce identical
// content strings, so repeated builds index identical corpora.
type Builder struct {
	store store.Store
}

// NewBuilder creates a corpus builder over the given store.
func NewBuilder(s store.Store) (*Builder, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Builder{store: s}, nil
}

// Build fetches every entity type and returns one document list per
// type. A storage failure aborts the whole build; the caller must not
// expose a half-built snapshot.
func (b *Builder) Build(ctx context.Context) (map[store.EntityType][]store.Document, error) {
	corpus := make(map[store.EntityType][]store.Document, 5)

	projects, err := b.BuildProjects(ctx)
	if err != nil {
		return nil, err
	}
	corpus[store.TypeProjects] = projects

	apis, err := b.BuildAPIs(ctx)
	if err != nil {
		return nil, err
	}
	corpus[store.TypeAPIs] = apis

	tags, err := b.BuildTags(ctx)
	if err != nil {
		return nil, err
	}
	corpus[store.TypeTags] = tags

	tables, err := b.BuildTables(ctx)
	if err != nil {
		return nil, err
	}
	corpus[store.TypeTables] = tables

	issues, err := b.BuildIssues(ctx)
	if err != nil {
		return nil, err
	}
	corpus[store.TypeIssues] = issues

	return corpus, nil
}

// BuildProjects renders all projects as documents.
func (b *Builder) BuildProjects(ctx context.Context) ([]store.Document, error) {
	projects, err := b.store.Projects(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to fetch projects", err)
	}

	docs := make([]store.Document, 0, len(projects))
	for _, p := range projects {
		docs = append(docs, ProjectDocument(p))
	}
	return docs, nil
}

// BuildAPIs renders all API endpoints as documents.
func (b *Builder) BuildAPIs(ctx context.Context) ([]store.Document, error) {
	apis, err := b.store.APIs(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to fetch apis", err)
	}

	docs := make([]store.Document, 0, len(apis))
	for _, a := range apis {
		docs = append(docs, APIDocument(a))
	}
	return docs, nil
}

// BuildTags renders all tags as documents.
func (b *Builder) BuildTags(ctx context.Context) ([]store.Document, error) {
	tags, err := b.store.Tags(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to fetch tags", err)
	}

	docs := make([]store.Document, 0, len(tags))
	for _, t := range tags {
		docs = append(docs, TagDocument(t))
	}
	return docs, nil
}

// BuildTables renders all data-model tables as documents.
func (b *Builder) BuildTables(ctx context.Context) ([]store.Document, error) {
	tables, err := b.store.Tables(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to fetch tables", err)
	}

	docs := make([]store.Document, 0, len(tables))
	for _, t := range tables {
		docs = append(docs, TableDocument(t))
	}
	return docs, nil
}

// BuildIssues renders all issues as documents.
func (b *Builder) BuildIssues(ctx context.Context) ([]store.Document, error) {
	issues, err := b.store.Issues(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to fetch issues", err)
	}

	docs := make([]store.Document, 0, len(issues))
	for _, i := range issues {
		docs = append(docs, IssueDocument(i))
	}
	return docs, nil
}

// idPrefixes namespace entity IDs so documents from different tables
// never collide in a shared index.
var idPrefixes = map[store.EntityType]string{
	store.TypeProjects: "project-",
	store.TypeAPIs:     "api-",
	store.TypeTags:     "tag-",
	store.TypeTables:   "table-",
	store.TypeIssues:   "issue-",
}

// DocumentID returns the corpus-wide document ID for an entity.
func DocumentID(typ store.EntityType, entityID string) string {
	return idPrefixes[typ] + entityID
}

// ProjectDocument renders one project. Field order is fixed.
func ProjectDocument(p store.Project) store.Document {
	return store.Document{
		ID:      DocumentID(store.TypeProjects, p.ID),
		Content: fmt.Sprintf("项目名称: %s\n描述: %s", p.Name, p.Description),
		Metadata: map[string]any{
			"type":        string(store.TypeProjects),
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
			"status":      p.Status,
			"updatedAt":   p.UpdatedAt,
		},
	}
}

// APIDocument renders one API endpoint. Empty fields are omitted but
// present fields always appear in the same order.
func APIDocument(a store.API) store.Document {
	lines := []string{"API名称: " + a.Name}
	if a.Method != "" {
		lines = append(lines, "请求方法: "+a.Method)
	}
	if a.Path != "" {
		lines = append(lines, "路径: "+a.Path)
	}
	if a.Description != "" {
		lines = append(lines, "描述: "+a.Description)
	}

	return store.Document{
		ID:      DocumentID(store.TypeAPIs, a.ID),
		Content: strings.Join(lines, "\n"),
		Metadata: map[string]any{
			"type":        string(store.TypeAPIs),
			"id":          a.ID,
			"projectId":   a.ProjectID,
			"name":        a.Name,
			"description": a.Description,
			"path":        a.Path,
			"method":      a.Method,
			"status":      a.Status,
			"updatedAt":   a.UpdatedAt,
		},
	}
}

// TagDocument renders one tag.
func TagDocument(t store.Tag) store.Document {
	return store.Document{
		ID:      DocumentID(store.TypeTags, t.ID),
		Content: "标签名称: " + t.Name,
		Metadata: map[string]any{
			"type":      string(store.TypeTags),
			"id":        t.ID,
			"projectId": t.ProjectID,
			"name":      t.Name,
			"color":     t.Color,
		},
	}
}

// TableDocument renders one data-model table.
func TableDocument(t store.Table) store.Document {
	return store.Document{
		ID:      DocumentID(store.TypeTables, t.ID),
		Content: fmt.Sprintf("表名: %s\n注释: %s", t.Name, t.Comment),
		Metadata: map[string]any{
			"type":      string(store.TypeTables),
			"id":        t.ID,
			"projectId": t.ProjectID,
			"name":      t.Name,
			"comment":   t.Comment,
		},
	}
}

// IssueDocument renders one issue.
func IssueDocument(i store.Issue) store.Document {
	return store.Document{
		ID:      DocumentID(store.TypeIssues, i.ID),
		Content: fmt.Sprintf("问题: %s\n描述: %s", i.Title, i.Description),
		Metadata: map[string]any{
			"type":        string(store.TypeIssues),
			"id":          i.ID,
			"projectId":   i.ProjectID,
			"title":       i.Title,
			"description": i.Description,
			"status":      i.Status,
			"priority":    i.Priority,
		},
	}
}
