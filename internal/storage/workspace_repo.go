package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_workspace_store.go -package=mocks annoloom/internal/storage WorkspaceStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// WorkspaceStore defines the interface for workspace storage operations.
type WorkspaceStore interface {
	// GetOrCreateByKey returns the workspace for key, creating it on first use.
	// An existing workspace has its root path refreshed when it changed.
	GetOrCreateByKey(ctx context.Context, key, rootPath string) (Workspace, error)
}

// WorkspaceRepo provides methods for workspace operations.
// It implements the WorkspaceStore interface.
type WorkspaceRepo struct {
	db    *sql.DB
	cache *lru.Cache[string, Workspace]
}

// NewWorkspaceRepo creates a new WorkspaceRepo.
func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo {
	c, _ := lru.New[string, Workspace](64)
	return &WorkspaceRepo{db: db, cache: c}
}

// GetOrCreateByKey gets an existing workspace by key, or creates it if it doesn't exist.
func (r *WorkspaceRepo) GetOrCreateByKey(ctx context.Context, key, rootPath string) (Workspace, error) {
	if key == "" {
		return Workspace{}, fmt.Errorf("workspace key is required")
	}
	if ws, ok := r.cache.Get(key); ok && ws.RootPath == rootPath {
		return ws, nil
	}

	ws, err := r.getByKey(ctx, key)
	switch {
	case err == nil:
		if ws.RootPath != rootPath {
			now := Now()
			if _, err := r.db.ExecContext(ctx,
				"UPDATE workspaces SET root_path = ?, updated_at = ? WHERE id = ?",
				rootPath, now, ws.ID,
			); err != nil {
				return Workspace{}, fmt.Errorf("failed to update workspace: %w", err)
			}
			ws.RootPath = rootPath
			ws.UpdatedAt = now
		}
		r.cache.Add(key, ws)
		return ws, nil
	case err != ErrNotFound:
		return Workspace{}, err
	}

	now := Now()
	ws = Workspace{
		ID:        uuid.New().String(),
		Key:       key,
		RootPath:  rootPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// A concurrent creator may win the UNIQUE(key) race; re-read in that case.
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, key, root_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO NOTHING`,
		ws.ID, ws.Key, ws.RootPath, ws.CreatedAt, ws.UpdatedAt,
	); err != nil {
		return Workspace{}, fmt.Errorf("failed to insert workspace: %w", err)
	}

	ws, err = r.getByKey(ctx, key)
	if err != nil {
		return Workspace{}, err
	}
	r.cache.Add(key, ws)
	return ws, nil
}

func (r *WorkspaceRepo) getByKey(ctx context.Context, key string) (Workspace, error) {
	var ws Workspace
	err := r.db.QueryRowContext(ctx,
		"SELECT id, key, root_path, created_at, updated_at FROM workspaces WHERE key = ?",
		key,
	).Scan(&ws.ID, &ws.Key, &ws.RootPath, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		return Workspace{}, ErrNotFound
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("failed to query workspace: %w", err)
	}
	return ws, nil
}
