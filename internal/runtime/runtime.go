// Package runtime abstracts the container engine behind an interface so
// orchestration code can be exercised against a fake and the engine can be
// swapped without touching callers.
package runtime

import (
	"context"
	"errors"
	"time"
)

// Labels stamped on every engine resource this service creates. The
// reconciler uses LabelManaged to tell managed resources from anything
// else living on the same engine; unlabeled resources are never touched.
const (
	LabelManaged   = "agentdb9.managed"
	LabelWorkspace = "agentdb9.workspace"
	LabelBackup    = "agentdb9.backup"
)

// ErrNotExist is returned by inspect/remove operations when the named
// resource is absent from the engine.
var ErrNotExist = errors.New("runtime: no such resource")

// ManagedLabels returns the label set for a workspace-owned resource.
func ManagedLabels(workspaceID string) map[string]string {
	return map[string]string{
		LabelManaged:   "true",
		LabelWorkspace: workspaceID,
	}
}

// ContainerSpec describes a container to create.
type ContainerSpec struct {
	Name          string
	Image         string
	Port          int
	Env           []string
	Cmd           []string
	VolumeName    string
	MountPath     string
	MemoryLimitMB int64
	CPUShares     int64
	Labels        map[string]string
	Network       string
}

// ContainerInfo is the engine's view of one container.
type ContainerInfo struct {
	ID      string
	Name    string
	State   string
	Running bool
	Labels  map[string]string
}

// ContainerRuntime is the single shared path to the container engine.
// Implementations must bound every call with their own timeout; a hung
// engine must not hang the caller indefinitely.
type ContainerRuntime interface {
	CreateContainer(ctx context.Context, spec ContainerSpec) (string, error)
	StartContainer(ctx context.Context, nameOrID string) error
	StopContainer(ctx context.Context, nameOrID string, grace time.Duration) error
	RemoveContainer(ctx context.Context, nameOrID string, force bool) error
	InspectContainer(ctx context.Context, nameOrID string) (ContainerInfo, error)
	ListContainers(ctx context.Context, labels map[string]string) ([]ContainerInfo, error)

	CreateVolume(ctx context.Context, name string, labels map[string]string) error
	RemoveVolume(ctx context.Context, name string) error
	ListVolumes(ctx context.Context, labels map[string]string) ([]string, error)
	// CopyVolume duplicates the contents of volume src into volume dst.
	// Both volumes must already exist.
	CopyVolume(ctx context.Context, src, dst string) error
}
