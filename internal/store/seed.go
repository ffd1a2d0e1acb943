package store

import (
	"context"

	"github.com/devapihub/apisearch/internal/errors"
)

// Seed bulk-inserts catalog fixtures. It exists for tests and for the
// demo CLI; the search core itself never writes.
type Seed struct {
	Projects []Project
	APIs     []API
	Tags     []Tag
	Tables   []Table
	Issues   []Issue
}

// ApplySeed inserts (or replaces) every entity in the seed.
func (s *SQLiteStore) ApplySeed(ctx context.Context, seed Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.DatabaseError("store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range seed.Projects {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO projects (id, name, description, status, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.Status, p.UpdatedAt.Unix()); err != nil {
			return errors.DatabaseError("failed to insert project", err)
		}
	}
	for _, a := range seed.APIs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO apis (id, project_id, name, description, path, method, status, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.ProjectID, a.Name, a.Description, a.Path, a.Method, a.Status, a.UpdatedAt.Unix()); err != nil {
			return errors.DatabaseError("failed to insert api", err)
		}
	}
	for _, t := range seed.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO tags (id, project_id, name, color) VALUES (?, ?, ?, ?)`,
			t.ID, t.ProjectID, t.Name, t.Color); err != nil {
			return errors.DatabaseError("failed to insert tag", err)
		}
	}
	for _, tb := range seed.Tables {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO tables (id, project_id, name, comment) VALUES (?, ?, ?, ?)`,
			tb.ID, tb.ProjectID, tb.Name, tb.Comment); err != nil {
			return errors.DatabaseError("failed to insert table", err)
		}
	}
	for _, i := range seed.Issues {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO issues (id, project_id, title, description, status, priority)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			i.ID, i.ProjectID, i.Title, i.Description, i.Status, i.Priority); err != nil {
			return errors.DatabaseError("failed to insert issue", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit seed", err)
	}
	return nil
}
