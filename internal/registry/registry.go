// Package registry owns the persisted workspace records and the
// default-workspace invariant. Engine-side resources are the
// orchestrator's and volume manager's business; the registry only tracks
// their handles.
package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/store"
)

type Registry struct {
	pool    *pgxpool.Pool
	queries *store.Queries
	log     *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *Registry {
	return &Registry{pool: pool, queries: store.New(pool), log: log}
}

// Queries exposes the underlying query set for read-only collaborators.
func (r *Registry) Queries() *store.Queries {
	return r.queries
}

type CreateParams struct {
	UserID      string
	Name        string
	Description string
	Type        core.WorkspaceType
	Config      core.WorkspaceConfig
	IsDefault   bool
}

// Create validates the type, merges the type's default config, and
// inserts the row. The user's first workspace becomes the default
// automatically; an explicit request clears the existing default first.
// Everything runs in one transaction so no reader observes two defaults.
func (r *Registry) Create(ctx context.Context, arg CreateParams) (core.Workspace, error) {
	if arg.Name == "" {
		return core.Workspace{}, core.NewAppError(core.ErrBadRequest, "name is required")
	}
	cfg, err := core.MergeConfig(arg.Type, arg.Config)
	if err != nil {
		return core.Workspace{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	qtx := r.queries.WithTx(tx)

	count, err := qtx.CountWorkspacesByUser(ctx, arg.UserID)
	if err != nil {
		return core.Workspace{}, err
	}
	isDefault := arg.IsDefault || count == 0
	if isDefault && count > 0 {
		if err := qtx.ClearDefault(ctx, arg.UserID); err != nil {
			return core.Workspace{}, err
		}
	}

	ws, err := qtx.CreateWorkspace(ctx, store.CreateWorkspaceParams{
		ID:          core.NewID(),
		UserID:      arg.UserID,
		Name:        arg.Name,
		Description: arg.Description,
		Type:        arg.Type,
		Config:      cfg,
		IsDefault:   isDefault,
	})
	if err != nil {
		return core.Workspace{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Workspace{}, fmt.Errorf("commit: %w", err)
	}

	r.log.Info("workspace created",
		zap.String("workspace_id", ws.ID),
		zap.String("user_id", ws.UserID),
		zap.String("type", string(ws.Type)),
		zap.Bool("is_default", ws.IsDefault),
	)
	return ws, nil
}

func (r *Registry) Get(ctx context.Context, id string) (core.Workspace, error) {
	return r.queries.GetWorkspace(ctx, id)
}

func (r *Registry) ListByUser(ctx context.Context, userID string) ([]core.Workspace, error) {
	return r.queries.ListWorkspacesByUser(ctx, userID)
}

func (r *Registry) ListByType(ctx context.Context, userID string, t core.WorkspaceType) ([]core.Workspace, error) {
	if _, err := core.DefaultConfig(t); err != nil {
		return nil, err
	}
	return r.queries.ListWorkspacesByType(ctx, userID, t)
}

type UpdateParams struct {
	ID          string
	Name        *string
	Description *string
	Status      *core.WorkspaceStatus
	IsDefault   *bool
}

// Update merges the provided fields. Setting is_default routes through
// the same clear-then-mark transaction as SetDefault.
func (r *Registry) Update(ctx context.Context, arg UpdateParams) (core.Workspace, error) {
	if arg.Status != nil && !core.ValidStatus(*arg.Status) {
		return core.Workspace{}, core.NewAppError(core.ErrBadRequest, fmt.Sprintf("unknown status %q", *arg.Status))
	}
	ws, err := r.queries.UpdateWorkspace(ctx, store.UpdateWorkspaceParams{
		ID:          arg.ID,
		Name:        arg.Name,
		Description: arg.Description,
		Status:      arg.Status,
	})
	if err != nil {
		return core.Workspace{}, err
	}
	if arg.IsDefault != nil && *arg.IsDefault && !ws.IsDefault {
		return r.SetDefault(ctx, arg.ID)
	}
	return ws, nil
}

// SetDefault promotes the workspace to the user's default. Clear and mark
// run in one transaction; the partial unique index rejects any other
// interleaving, so observers see exactly one default throughout.
func (r *Registry) SetDefault(ctx context.Context, id string) (core.Workspace, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	qtx := r.queries.WithTx(tx)

	ws, err := qtx.GetWorkspace(ctx, id)
	if err != nil {
		return core.Workspace{}, err
	}
	if err := qtx.ClearDefault(ctx, ws.UserID); err != nil {
		return core.Workspace{}, err
	}
	ws, err = qtx.MarkDefault(ctx, id)
	if err != nil {
		return core.Workspace{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Workspace{}, fmt.Errorf("commit: %w", err)
	}
	return ws, nil
}

// Delete removes the row, clears project bindings, and promotes the
// user's oldest remaining workspace when the deleted one was the default.
// Engine resources must already be gone; callers tear those down first.
func (r *Registry) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)
	qtx := r.queries.WithTx(tx)

	ws, err := qtx.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if err := qtx.UnassignProjectsByWorkspace(ctx, id); err != nil {
		return err
	}
	if err := qtx.DeleteWorkspace(ctx, id); err != nil {
		return err
	}
	if ws.IsDefault {
		if _, err := qtx.PromoteOldest(ctx, ws.UserID); err != nil {
			// No workspaces left for this user.
			if core.AsAppError(err).Code != core.ErrNotFound {
				return err
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.log.Info("workspace deleted",
		zap.String("workspace_id", id),
		zap.Bool("was_default", ws.IsDefault),
	)
	return nil
}

// Stats aggregates the user's workspaces by type and status.
func (r *Registry) Stats(ctx context.Context, userID string) (core.WorkspaceStats, error) {
	workspaces, err := r.queries.ListWorkspacesByUser(ctx, userID)
	if err != nil {
		return core.WorkspaceStats{}, err
	}
	stats := core.WorkspaceStats{
		Total:    len(workspaces),
		ByType:   make(map[core.WorkspaceType]int),
		ByStatus: make(map[core.WorkspaceStatus]int),
	}
	for _, ws := range workspaces {
		stats.ByType[ws.Type]++
		stats.ByStatus[ws.Status]++
		if ws.IsDefault {
			stats.DefaultID = ws.ID
		}
	}
	return stats, nil
}
