// Package store provides read-only access to the API-documentation
// catalog: projects, API endpoints, tags, data tables, and issues.
package store

import (
	"context"
	"time"
)

// EntityType identifies a searchable entity namespace.
type EntityType string

const (
	TypeProjects EntityType = "projects"
	TypeAPIs     EntityType = "apis"
	TypeTags     EntityType = "tags"
	TypeTables   EntityType = "tables"
	TypeIssues   EntityType = "issues"
)

// AllEntityTypes lists every searchable entity type in stable order.
func AllEntityTypes() []EntityType {
	return []EntityType{TypeProjects, TypeAPIs, TypeTags, TypeTables, TypeIssues}
}

// ValidEntityType reports whether t names a known entity type.
func ValidEntityType(t EntityType) bool {
	switch t {
	case TypeProjects, TypeAPIs, TypeTags, TypeTables, TypeIssues:
		return true
	}
	return false
}

// Document is the normalized unit indexed for search: a namespaced id,
// flattened searchable content, and the original entity fields.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Type returns the entity type tag recorded in the document metadata.
func (d Document) Type() EntityType {
	if t, ok := d.Metadata["type"].(string); ok {
		return EntityType(t)
	}
	return ""
}

// Project is a top-level API project.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      string
	UpdatedAt   time.Time
}

// API is a single documented endpoint within a project.
type API struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Path        string
	Method      string
	Status      string
	UpdatedAt   time.Time
}

// Tag labels APIs within a project.
type Tag struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
}

// Table is a data-model table attached to a project.
type Table struct {
	ID        string
	ProjectID string
	Name      string
	Comment   string
}

// Issue is a tracked problem or task on a project.
type Issue struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      string
	Priority    string
}

// Store is the read-only bulk-fetch interface the search core pulls
// entities from. Implementations must be safe for concurrent use.
type Store interface {
	Projects(ctx context.Context) ([]Project, error)
	APIs(ctx context.Context) ([]API, error)
	Tags(ctx context.Context) ([]Tag, error)
	Tables(ctx context.Context) ([]Table, error)
	Issues(ctx context.Context) ([]Issue, error)

	// RecentProjects returns up to n projects ordered by update time,
	// newest first.
	RecentProjects(ctx context.Context, n int) ([]Project, error)
	// RecentAPIs returns up to n APIs ordered by update time, newest first.
	RecentAPIs(ctx context.Context, n int) ([]API, error)

	Close() error
}
