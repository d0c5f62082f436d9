package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/registry"
)

type CreateWorkspaceRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Type        core.WorkspaceType   `json:"type"`
	Config      core.WorkspaceConfig `json:"config,omitempty"`
	ProjectID   string               `json:"projectId,omitempty"`
	IsDefault   bool                 `json:"isDefault,omitempty"`
}

type UpdateWorkspaceRequest struct {
	Name             *string               `json:"name,omitempty"`
	Description      *string               `json:"description,omitempty"`
	Status           *core.WorkspaceStatus `json:"status,omitempty"`
	IsDefault        *bool                 `json:"isDefault,omitempty"`
	CurrentProjectID *string               `json:"currentProjectId,omitempty"`
}

// ListTypes lists the available workspace types with their default
// configs.
func (a *API) ListTypes(w http.ResponseWriter, r *http.Request) {
	types := make([]map[string]interface{}, 0, len(core.WorkspaceTypes()))
	for _, t := range core.WorkspaceTypes() {
		cfg, _ := core.DefaultConfig(t)
		types = append(types, map[string]interface{}{
			"type":           t,
			"default_config": cfg,
		})
	}
	WriteData(w, http.StatusOK, types)
}

// ListWorkspaces lists the current user's workspaces.
func (a *API) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		WriteError(w, appErr)
		return
	}
	workspaces, err := a.registry.ListByUser(r.Context(), userID)
	if err != nil {
		a.log.Error("list workspaces failed", zap.Error(err))
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, workspaces)
}

// ListWorkspacesByType lists the current user's workspaces of one type.
func (a *API) ListWorkspacesByType(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		WriteError(w, appErr)
		return
	}
	t := core.WorkspaceType(chi.URLParam(r, "type"))
	workspaces, err := a.registry.ListByType(r.Context(), userID, t)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, workspaces)
}

// GetWorkspace returns one workspace by id.
func (a *API) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := a.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// CreateWorkspace creates a registry row; the container and volume are
// provisioned on first start.
func (a *API) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, appErr := currentUser(r)
	if appErr != nil {
		WriteError(w, appErr)
		return
	}

	var req CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}

	ws, err := a.registry.Create(ctx, registry.CreateParams{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Config:      req.Config,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		WriteFailure(w, err)
		return
	}

	// An initial project may come along with the create call.
	if req.ProjectID != "" {
		if _, err := a.binder.Assign(ctx, req.ProjectID, ws.ID); err != nil {
			a.log.Warn("initial project assignment failed",
				zap.String("workspace_id", ws.ID),
				zap.String("project_id", req.ProjectID),
				zap.Error(err))
		}
	}

	WriteData(w, http.StatusCreated, ws)
}

// UpdateWorkspace merges the provided fields into the row. A
// currentProjectId routes through the binder so the compatibility checks
// and the live remount run; an empty string clears it without remounting.
func (a *API) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req UpdateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}

	if req.CurrentProjectID != nil {
		switch *req.CurrentProjectID {
		case "":
			if err := a.queries.SetCurrentProject(ctx, id, nil); err != nil {
				WriteFailure(w, err)
				return
			}
		default:
			ws, err := a.binder.Switch(ctx, id, *req.CurrentProjectID)
			if err != nil {
				WriteFailure(w, err)
				return
			}
			if req.Name == nil && req.Description == nil && req.Status == nil && req.IsDefault == nil {
				WriteData(w, http.StatusOK, ws)
				return
			}
		}
	}

	ws, err := a.registry.Update(ctx, registry.UpdateParams{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// SetDefault promotes the workspace to the user's default.
func (a *API) SetDefault(w http.ResponseWriter, r *http.Request) {
	ws, err := a.registry.SetDefault(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// DeleteWorkspace tears down the container and volume, then removes the
// row, promoting another workspace to default when needed. With
// ?preserveVolume=true the volume is pinned in preserved_volumes so the
// orphan sweep keeps counting it as referenced.
func (a *API) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ws, err := a.registry.Get(ctx, id)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if err := a.orch.Remove(ctx, id); err != nil {
		WriteFailure(w, err)
		return
	}
	if r.URL.Query().Get("preserveVolume") == "true" {
		if ws.VolumeName != "" {
			if err := a.queries.PreserveVolume(ctx, ws.VolumeName); err != nil {
				WriteFailure(w, err)
				return
			}
		}
	} else {
		if err := a.volumes.Remove(ctx, id); err != nil {
			WriteFailure(w, err)
			return
		}
	}
	if err := a.registry.Delete(ctx, id); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"id": id})
}

// WorkspaceStats aggregates the user's workspaces by type and status.
func (a *API) WorkspaceStats(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		WriteError(w, appErr)
		return
	}
	stats, err := a.registry.Stats(r.Context(), userID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, stats)
}
