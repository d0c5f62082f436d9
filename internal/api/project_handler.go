package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

type AssignProjectRequest struct {
	ProjectID string `json:"projectId"`
}

type SwitchProjectRequest struct {
	ProjectID string `json:"projectId"`
}

// WorkspaceProjects lists the projects bound to the workspace.
func (a *API) WorkspaceProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.binder.ProjectsByWorkspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, projects)
}

// CompatibleProjects lists the owner's projects that may run in this
// workspace: unpinned projects plus those pinned to its type.
func (a *API) CompatibleProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, err := a.registry.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	projects, err := a.binder.CompatibleProjects(ctx, ws.UserID, ws.Type)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, projects)
}

// UnassignedProjects lists the current user's projects bound to no
// workspace.
func (a *API) UnassignedProjects(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		WriteError(w, appErr)
		return
	}
	projects, err := a.binder.UnassignedProjects(r.Context(), userID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, projects)
}

// AssignProject binds a project to the workspace.
func (a *API) AssignProject(w http.ResponseWriter, r *http.Request) {
	var req AssignProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "projectId is required"))
		return
	}
	project, err := a.binder.Assign(r.Context(), req.ProjectID, chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, project)
}

// UnassignProject clears a project's workspace binding.
func (a *API) UnassignProject(w http.ResponseWriter, r *http.Request) {
	var req AssignProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "projectId is required"))
		return
	}
	project, err := a.binder.Unassign(r.Context(), req.ProjectID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, project)
}

// SwitchProject makes the project the workspace's current one, remounting
// the live container. Either the whole switch succeeds or the registry is
// left unchanged.
func (a *API) SwitchProject(w http.ResponseWriter, r *http.Request) {
	var req SwitchProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "projectId is required"))
		return
	}
	ws, err := a.binder.Switch(r.Context(), chi.URLParam(r, "id"), req.ProjectID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// ProjectStats summarizes project bindings for the workspace.
func (a *API) ProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.binder.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, stats)
}
