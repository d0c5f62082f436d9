// Package binder manages the association between projects and
// workspaces: which workspace a project runs in, which project a
// workspace currently has mounted, and the compatibility rules between
// the two.
package binder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

// Store is the persistence surface the binder needs. *store.Queries
// satisfies it.
type Store interface {
	GetWorkspace(ctx context.Context, id string) (core.Workspace, error)
	GetProject(ctx context.Context, id string) (core.Project, error)
	AssignProject(ctx context.Context, projectID, workspaceID string, t core.WorkspaceType) (core.Project, error)
	UnassignProject(ctx context.Context, projectID string) (core.Project, error)
	ListProjectsByWorkspace(ctx context.Context, workspaceID string) ([]core.Project, error)
	ListCompatibleProjects(ctx context.Context, userID string, t core.WorkspaceType) ([]core.Project, error)
	ListUnassignedProjects(ctx context.Context, userID string) ([]core.Project, error)
	CountProjectsByUser(ctx context.Context, userID string) (int, error)
	CountProjectsByWorkspace(ctx context.Context, workspaceID string) (int, error)
	SetCurrentProject(ctx context.Context, id string, projectID *string) error
}

// Mounter performs the live volume remount when the current project
// switches. The orchestrator satisfies it.
type Mounter interface {
	Remount(ctx context.Context, workspaceID, projectID string) error
}

type Binder struct {
	store   Store
	mounter Mounter
	log     *zap.Logger
}

func New(store Store, mounter Mounter, log *zap.Logger) *Binder {
	return &Binder{store: store, mounter: mounter, log: log}
}

// Assign binds a project to a workspace and pins the project's workspace
// type. Cross-user bindings are rejected before anything is written.
func (b *Binder) Assign(ctx context.Context, projectID, workspaceID string) (core.Project, error) {
	project, err := b.store.GetProject(ctx, projectID)
	if err != nil {
		return core.Project{}, err
	}
	ws, err := b.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return core.Project{}, err
	}
	if project.UserID != ws.UserID {
		return core.Project{}, core.NewAppError(core.ErrBadRequest, "project and workspace belong to different users")
	}
	if !project.CompatibleWith(ws.Type) {
		return core.Project{}, core.NewAppError(core.ErrBadRequest,
			fmt.Sprintf("project is pinned to type %q, workspace is %q", *project.WorkspaceType, ws.Type))
	}

	project, err = b.store.AssignProject(ctx, projectID, workspaceID, ws.Type)
	if err != nil {
		return core.Project{}, err
	}
	b.log.Info("project assigned",
		zap.String("project_id", projectID),
		zap.String("workspace_id", workspaceID),
	)
	return project, nil
}

// Unassign clears both binding fields on the project.
func (b *Binder) Unassign(ctx context.Context, projectID string) (core.Project, error) {
	if _, err := b.store.GetProject(ctx, projectID); err != nil {
		return core.Project{}, err
	}
	return b.store.UnassignProject(ctx, projectID)
}

func (b *Binder) ProjectsByWorkspace(ctx context.Context, workspaceID string) ([]core.Project, error) {
	if _, err := b.store.GetWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	return b.store.ListProjectsByWorkspace(ctx, workspaceID)
}

// CompatibleProjects returns the user's projects that may run in a
// workspace of the given type. Projects without a pinned type always
// qualify.
func (b *Binder) CompatibleProjects(ctx context.Context, userID string, t core.WorkspaceType) ([]core.Project, error) {
	return b.store.ListCompatibleProjects(ctx, userID, t)
}

func (b *Binder) UnassignedProjects(ctx context.Context, userID string) ([]core.Project, error) {
	return b.store.ListUnassignedProjects(ctx, userID)
}

// Switch makes the project the workspace's current one. The live remount
// runs first; only when it succeeds are the implicit binding and
// current_project_id written, so a failed remount leaves the registry
// unchanged.
func (b *Binder) Switch(ctx context.Context, workspaceID, projectID string) (core.Workspace, error) {
	ws, err := b.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return core.Workspace{}, err
	}
	project, err := b.store.GetProject(ctx, projectID)
	if err != nil {
		return core.Workspace{}, err
	}
	if project.UserID != ws.UserID {
		return core.Workspace{}, core.NewAppError(core.ErrBadRequest, "project and workspace belong to different users")
	}
	if !project.CompatibleWith(ws.Type) {
		return core.Workspace{}, core.NewAppError(core.ErrBadRequest,
			fmt.Sprintf("project is pinned to type %q, workspace is %q", *project.WorkspaceType, ws.Type))
	}

	if err := b.mounter.Remount(ctx, workspaceID, projectID); err != nil {
		return core.Workspace{}, err
	}

	// Projects switched into a workspace implicitly bind to it.
	if project.WorkspaceID == nil || *project.WorkspaceID != workspaceID {
		if _, err := b.store.AssignProject(ctx, projectID, workspaceID, ws.Type); err != nil {
			return core.Workspace{}, err
		}
	}
	if err := b.store.SetCurrentProject(ctx, workspaceID, &projectID); err != nil {
		return core.Workspace{}, err
	}

	b.log.Info("workspace project switched",
		zap.String("workspace_id", workspaceID),
		zap.String("project_id", projectID),
	)
	return b.store.GetWorkspace(ctx, workspaceID)
}

// Stats reports the owner's total project count, how many are bound to
// this workspace, and the currently mounted project.
func (b *Binder) Stats(ctx context.Context, workspaceID string) (core.ProjectStats, error) {
	ws, err := b.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return core.ProjectStats{}, err
	}
	total, err := b.store.CountProjectsByUser(ctx, ws.UserID)
	if err != nil {
		return core.ProjectStats{}, err
	}
	assigned, err := b.store.CountProjectsByWorkspace(ctx, workspaceID)
	if err != nil {
		return core.ProjectStats{}, err
	}
	stats := core.ProjectStats{TotalProjects: total, AssignedProjects: assigned}
	if ws.CurrentProjectID != nil {
		current, err := b.store.GetProject(ctx, *ws.CurrentProjectID)
		if err == nil {
			stats.CurrentProject = &current
		}
	}
	return stats, nil
}
