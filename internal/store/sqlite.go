package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/devapihub/apisearch/internal/errors"
)

// SQLiteStore reads catalog entities from a SQLite database.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the catalog database at path.
// An empty path opens an in-memory database for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.New(errors.ErrCodeDatabaseOpen,
				fmt.Sprintf("failed to create directory %s", dir), err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeDatabaseOpen, "failed to open database", err)
	}

	// Single connection avoids lock contention; WAL must be set via
	// PRAGMA for modernc.org/sqlite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.New(errors.ErrCodeDatabaseOpen, "failed to set pragma", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			updated_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS apis (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			method TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'developing',
			updated_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open',
			priority TEXT NOT NULL DEFAULT 'medium'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_apis_project ON apis(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_apis_updated ON apis(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.New(errors.ErrCodeDatabaseOpen, "failed to initialize schema", err)
		}
	}
	return nil
}

// Projects returns all projects in insertion order.
func (s *SQLiteStore) Projects(ctx context.Context) ([]Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, name, description, status, updated_at FROM projects ORDER BY rowid`)
}

// RecentProjects returns up to n projects, newest update first.
func (s *SQLiteStore) RecentProjects(ctx context.Context, n int) ([]Project, error) {
	return s.queryProjects(ctx,
		`SELECT id, name, description, status, updated_at FROM projects
		 ORDER BY updated_at DESC LIMIT ?`, n)
}

func (s *SQLiteStore) queryProjects(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var updated int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &updated); err != nil {
			return nil, errors.DatabaseError("failed to scan project row", err)
		}
		p.UpdatedAt = time.Unix(updated, 0).UTC()
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate project rows", err)
	}
	return projects, nil
}

// APIs returns all API endpoints in insertion order.
func (s *SQLiteStore) APIs(ctx context.Context) ([]API, error) {
	return s.queryAPIs(ctx,
		`SELECT id, project_id, name, description, path, method, status, updated_at
		 FROM apis ORDER BY rowid`)
}

// RecentAPIs returns up to n APIs, newest update first.
func (s *SQLiteStore) RecentAPIs(ctx context.Context, n int) ([]API, error) {
	return s.queryAPIs(ctx,
		`SELECT id, project_id, name, description, path, method, status, updated_at
		 FROM apis ORDER BY updated_at DESC LIMIT ?`, n)
}

func (s *SQLiteStore) queryAPIs(ctx context.Context, query string, args ...any) ([]API, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apis []API
	for rows.Next() {
		var a API
		var updated int64
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Description,
			&a.Path, &a.Method, &a.Status, &updated); err != nil {
			return nil, errors.DatabaseError("failed to scan api row", err)
		}
		a.UpdatedAt = time.Unix(updated, 0).UTC()
		apis = append(apis, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate api rows", err)
	}
	return apis, nil
}

// Tags returns all tags in insertion order.
func (s *SQLiteStore) Tags(ctx context.Context) ([]Tag, error) {
	rows, err := s.query(ctx, `SELECT id, project_id, name, color FROM tags ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Color); err != nil {
			return nil, errors.DatabaseError("failed to scan tag row", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate tag rows", err)
	}
	return tags, nil
}

// Tables returns all data-model tables in insertion order.
func (s *SQLiteStore) Tables(ctx context.Context) ([]Table, error) {
	rows, err := s.query(ctx, `SELECT id, project_id, name, comment FROM tables ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Comment); err != nil {
			return nil, errors.DatabaseError("failed to scan table row", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate table rows", err)
	}
	return tables, nil
}

// Issues returns all issues in insertion order.
func (s *SQLiteStore) Issues(ctx context.Context) ([]Issue, error) {
	rows, err := s.query(ctx,
		`SELECT id, project_id, title, description, status, priority FROM issues ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		var i Issue
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.Title, &i.Description, &i.Status, &i.Priority); err != nil {
			return nil, errors.DatabaseError("failed to scan issue row", err)
		}
		issues = append(issues, i)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate issue rows", err)
	}
	return issues, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.DatabaseError("store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("query failed", err)
	}
	return rows, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
