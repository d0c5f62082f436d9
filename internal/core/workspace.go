package core

import "time"

type WorkspaceStatus string

const (
	// Logical lifecycle states.
	WorkspaceActive   WorkspaceStatus = "active"
	WorkspaceInactive WorkspaceStatus = "inactive"
	WorkspaceArchived WorkspaceStatus = "archived"
	// Last-known runtime states, cached from the engine probe.
	WorkspaceRunning WorkspaceStatus = "running"
	WorkspaceStopped WorkspaceStatus = "stopped"
	WorkspaceError   WorkspaceStatus = "error"
)

// ValidStatus reports whether s is a known workspace status.
func ValidStatus(s WorkspaceStatus) bool {
	switch s {
	case WorkspaceActive, WorkspaceInactive, WorkspaceArchived,
		WorkspaceRunning, WorkspaceStopped, WorkspaceError:
		return true
	}
	return false
}

type Workspace struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Type             WorkspaceType   `json:"type"`
	Config           WorkspaceConfig `json:"config"`
	Status           WorkspaceStatus `json:"status"`
	IsDefault        bool            `json:"is_default"`
	CurrentProjectID *string         `json:"current_project_id,omitempty"`
	ContainerName    string          `json:"container_name,omitempty"`
	ContainerID      string          `json:"container_id,omitempty"`
	VolumeName       string          `json:"volume_name,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ContainerNameFor derives the engine container name for a workspace.
// The mapping is deterministic so the reconciler can match engine
// resources back to registry rows by name alone.
func ContainerNameFor(workspaceID string) string {
	return "ws-" + workspaceID
}

// VolumeNameFor derives the engine volume name for a workspace.
func VolumeNameFor(workspaceID string) string {
	return "wsvol-" + workspaceID
}

// BackupVolumeName derives the volume name for a backup of a workspace
// volume. Backup volumes carry the management label plus a backup label,
// which keeps them out of the orphaned-volume sweep.
func BackupVolumeName(workspaceID, backupID string) string {
	return VolumeNameFor(workspaceID) + "-backup-" + backupID
}

type WorkspaceStats struct {
	Total     int                     `json:"total"`
	ByType    map[WorkspaceType]int   `json:"by_type"`
	ByStatus  map[WorkspaceStatus]int `json:"by_status"`
	DefaultID string                  `json:"default_id,omitempty"`
}
