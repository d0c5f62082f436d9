package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

// StartWorkspace provisions (on first use) and starts the container.
func (a *API) StartWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := a.orch.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// StopWorkspace gracefully stops the container.
func (a *API) StopWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.orch.Stop(r.Context(), id); err != nil {
		WriteFailure(w, err)
		return
	}
	ws, err := a.registry.Get(r.Context(), id)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// RestartWorkspace stops then starts the container.
func (a *API) RestartWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := a.orch.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, ws)
}

// WorkspaceStatus probes the engine directly; the registry status column
// is only a cache of this answer.
func (a *API) WorkspaceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := a.orch.ProbeStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, status)
}

// BackupVolume snapshots the workspace volume and returns the backup id.
func (a *API) BackupVolume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := a.registry.Get(ctx, id); err != nil {
		WriteFailure(w, err)
		return
	}
	backupID, err := a.volumes.Backup(ctx, id)
	if err != nil {
		a.log.Error("volume backup failed", zap.String("workspace_id", id), zap.Error(err))
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"backup_id": backupID})
}

type RestoreVolumeRequest struct {
	BackupID string `json:"backupId"`
}

// RestoreVolume copies a backup over the live volume. The container is
// stopped first so the restore does not race live writes.
func (a *API) RestoreVolume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req RestoreVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BackupID == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "backupId is required"))
		return
	}
	if _, err := a.registry.Get(ctx, id); err != nil {
		WriteFailure(w, err)
		return
	}
	if err := a.orch.Stop(ctx, id); err != nil {
		WriteFailure(w, err)
		return
	}
	if err := a.volumes.Restore(ctx, id, req.BackupID); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"backup_id": req.BackupID})
}

type CloneVolumeRequest struct {
	TargetWorkspaceID string `json:"targetWorkspaceId"`
}

// CloneVolume duplicates this workspace's volume into another workspace.
func (a *API) CloneVolume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req CloneVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetWorkspaceID == "" {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "targetWorkspaceId is required"))
		return
	}
	src, err := a.registry.Get(ctx, id)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	dst, err := a.registry.Get(ctx, req.TargetWorkspaceID)
	if err != nil {
		WriteFailure(w, err)
		return
	}
	if src.UserID != dst.UserID {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "workspaces belong to different users"))
		return
	}
	if err := a.volumes.Clone(ctx, id, req.TargetWorkspaceID); err != nil {
		WriteFailure(w, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"target_workspace_id": req.TargetWorkspaceID})
}
