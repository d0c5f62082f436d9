package core

import "time"

// Project carries only the fields this subsystem owns or reads. The full
// project entity (files, conversations) lives with its own service; the
// binder persists the two workspace columns on its behalf.
type Project struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Name          string         `json:"name"`
	WorkspaceID   *string        `json:"workspace_id,omitempty"`
	WorkspaceType *WorkspaceType `json:"workspace_type,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CompatibleWith reports whether the project may run in a workspace of
// type t. An unset workspace type is compatible with any workspace.
func (p *Project) CompatibleWith(t WorkspaceType) bool {
	return p.WorkspaceType == nil || *p.WorkspaceType == t
}

// ProjectStats summarizes project bindings for one workspace.
type ProjectStats struct {
	TotalProjects    int      `json:"total_projects"`
	AssignedProjects int      `json:"assigned_projects"`
	CurrentProject   *Project `json:"current_project,omitempty"`
}
