// Package orchestrator drives workspace containers through their
// lifecycle: absent -> created -> running <-> stopped -> removed, with an
// error status reachable from any failed transition. All mutations for a
// given workspace are serialized through a per-workspace mutex so a user
// start and a reconciler stop cannot interleave.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/observability"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/runtime"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/store"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/volumes"
)

// Store is the registry surface the orchestrator writes through.
// *store.Queries satisfies it.
type Store interface {
	GetWorkspace(ctx context.Context, id string) (core.Workspace, error)
	UpdateWorkspaceStatus(ctx context.Context, id string, status core.WorkspaceStatus) error
	SetProvisioned(ctx context.Context, arg store.SetProvisionedParams) error
	ClearContainer(ctx context.Context, id string, status core.WorkspaceStatus) error
}

type Config struct {
	// StopGrace is the graceful-stop window before the engine kills the
	// container process.
	StopGrace time.Duration
	// Network is the engine network joined by every workspace container;
	// the proxy reaches containers by name over it.
	Network string
	// MountPath is where the workspace volume lands inside the container.
	MountPath string
}

type Orchestrator struct {
	store   Store
	rt      runtime.ContainerRuntime
	volumes *volumes.Manager
	cfg     Config
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(st Store, rt runtime.ContainerRuntime, vols *volumes.Manager, cfg Config, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:   st,
		rt:      rt,
		volumes: vols,
		cfg:     cfg,
		log:     log,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lock returns the mutex serializing operations for one workspace.
// Entries are never evicted; the map grows with the workspace count,
// which is bounded at this deployment scale.
func (o *Orchestrator) lock(id string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[id]
	if !ok {
		l = &sync.Mutex{}
		o.locks[id] = l
	}
	return l
}

// Status is the engine's live view of a workspace container.
type Status struct {
	ContainerRunning bool   `json:"container_running"`
	State            string `json:"state"`
	ContainerName    string `json:"container_name,omitempty"`
}

// Start provisions the volume and container on first use, then starts the
// container. Idempotent when already running.
func (o *Orchestrator) Start(ctx context.Context, id string) (core.Workspace, error) {
	l := o.lock(id)
	l.Lock()
	defer l.Unlock()
	return o.startLocked(ctx, id)
}

func (o *Orchestrator) startLocked(ctx context.Context, id string) (core.Workspace, error) {
	ws, err := o.store.GetWorkspace(ctx, id)
	if err != nil {
		return core.Workspace{}, err
	}

	if ws.ContainerName != "" {
		info, err := o.engineInspect(ctx, ws.ContainerName)
		switch {
		case err == nil && info.Running:
			// Already running; refresh the cached status only.
			ws.Status = core.WorkspaceRunning
			return ws, o.setStatus(ctx, id, core.WorkspaceRunning)
		case err == nil:
			if err := o.engineStart(ctx, ws.ContainerName); err != nil {
				return core.Workspace{}, o.flagError(ctx, id, err)
			}
			ws.Status = core.WorkspaceRunning
			return ws, o.setStatus(ctx, id, core.WorkspaceRunning)
		case errors.Is(err, runtime.ErrNotExist):
			// Registry says provisioned but the engine disagrees;
			// fall through and provision again under the same names.
		default:
			return core.Workspace{}, o.flagError(ctx, id, err)
		}
	}

	volumeName, err := o.volumes.Ensure(ctx, id)
	if err != nil {
		return core.Workspace{}, o.flagError(ctx, id, err)
	}

	containerID, containerName, err := o.createContainer(ctx, ws, volumeName)
	if err != nil {
		return core.Workspace{}, o.flagError(ctx, id, err)
	}
	if err := o.engineStart(ctx, containerName); err != nil {
		return core.Workspace{}, o.flagError(ctx, id, err)
	}

	err = o.store.SetProvisioned(ctx, store.SetProvisionedParams{
		ID:            id,
		ContainerName: containerName,
		ContainerID:   containerID,
		VolumeName:    volumeName,
		Status:        core.WorkspaceRunning,
	})
	if err != nil {
		return core.Workspace{}, err
	}
	observability.WorkspaceStatusTransitions.WithLabelValues(string(core.WorkspaceRunning)).Inc()

	o.log.Info("workspace started",
		zap.String("workspace_id", id),
		zap.String("container", containerName),
	)
	ws.ContainerName = containerName
	ws.ContainerID = containerID
	ws.VolumeName = volumeName
	ws.Status = core.WorkspaceRunning
	return ws, nil
}

func (o *Orchestrator) createContainer(ctx context.Context, ws core.Workspace, volumeName string) (id, name string, err error) {
	name = core.ContainerNameFor(ws.ID)
	spec := runtime.ContainerSpec{
		Name:          name,
		Image:         ws.Config.Image,
		Port:          ws.Config.Port,
		Env:           o.containerEnv(ws),
		VolumeName:    volumeName,
		MountPath:     o.cfg.MountPath,
		MemoryLimitMB: ws.Config.MemoryLimitMB,
		CPUShares:     ws.Config.CPUShares,
		Labels:        runtime.ManagedLabels(ws.ID),
		Network:       o.cfg.Network,
	}
	start := time.Now()
	id, err = o.rt.CreateContainer(ctx, spec)
	observability.EngineOpDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.EngineOpFailures.WithLabelValues("create").Inc()
		return "", "", err
	}
	return id, name, nil
}

func (o *Orchestrator) containerEnv(ws core.Workspace) []string {
	env := []string{
		"WORKSPACE_ID=" + ws.ID,
		"WORKSPACE_TYPE=" + string(ws.Type),
	}
	if ws.CurrentProjectID != nil {
		env = append(env, "PROJECT_ID="+*ws.CurrentProjectID)
	}
	return env
}

// Stop gracefully stops the container. No-op when the container is absent
// or already stopped.
func (o *Orchestrator) Stop(ctx context.Context, id string) error {
	l := o.lock(id)
	l.Lock()
	defer l.Unlock()
	return o.stopLocked(ctx, id)
}

func (o *Orchestrator) stopLocked(ctx context.Context, id string) error {
	ws, err := o.store.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if ws.ContainerName == "" {
		return nil
	}
	if err := o.engineStop(ctx, ws.ContainerName); err != nil {
		if errors.Is(err, runtime.ErrNotExist) {
			return o.setStatus(ctx, id, core.WorkspaceStopped)
		}
		return o.flagError(ctx, id, err)
	}
	o.log.Info("workspace stopped", zap.String("workspace_id", id))
	return o.setStatus(ctx, id, core.WorkspaceStopped)
}

// Restart stops then starts the container. A start failure after a clean
// stop flags the workspace for the recovery job and surfaces the error.
func (o *Orchestrator) Restart(ctx context.Context, id string) (core.Workspace, error) {
	l := o.lock(id)
	l.Lock()
	defer l.Unlock()
	if err := o.stopLocked(ctx, id); err != nil {
		return core.Workspace{}, err
	}
	return o.startLocked(ctx, id)
}

// ProbeStatus asks the engine directly. The registry status column is a
// cache of this answer, never the other way around.
func (o *Orchestrator) ProbeStatus(ctx context.Context, id string) (Status, error) {
	ws, err := o.store.GetWorkspace(ctx, id)
	if err != nil {
		return Status{}, err
	}
	return o.probeContainer(ctx, ws)
}

func (o *Orchestrator) probeContainer(ctx context.Context, ws core.Workspace) (Status, error) {
	name := ws.ContainerName
	if name == "" {
		name = core.ContainerNameFor(ws.ID)
	}
	info, err := o.engineInspect(ctx, name)
	if err != nil {
		if errors.Is(err, runtime.ErrNotExist) {
			return Status{ContainerRunning: false, State: "absent"}, nil
		}
		return Status{}, core.NewAppError(core.ErrRuntime, fmt.Sprintf("status probe failed: %s", err))
	}
	return Status{
		ContainerRunning: info.Running,
		State:            info.State,
		ContainerName:    info.Name,
	}, nil
}

// Remove force-stops and removes the container. Safe to call when the
// container never existed. The registry row is left with cleared handles;
// callers deleting the whole workspace drop the row afterwards.
func (o *Orchestrator) Remove(ctx context.Context, id string) error {
	l := o.lock(id)
	l.Lock()
	defer l.Unlock()

	// Derive the name rather than trusting the row, so removal works
	// even for rows that lost their handles.
	name := core.ContainerNameFor(id)
	if err := o.engineRemove(ctx, name, true); err != nil && !errors.Is(err, runtime.ErrNotExist) {
		return o.flagError(ctx, id, err)
	}
	if err := o.store.ClearContainer(ctx, id, core.WorkspaceStopped); err != nil {
		if core.AsAppError(err).Code == core.ErrNotFound {
			return nil
		}
		return err
	}
	o.log.Info("workspace container removed", zap.String("workspace_id", id))
	return nil
}

// Remount recreates the container so the volume is attached under the
// newly selected project. Called by the binder with the project already
// validated; if anything fails the binder leaves the registry untouched.
func (o *Orchestrator) Remount(ctx context.Context, id, projectID string) error {
	l := o.lock(id)
	l.Lock()
	defer l.Unlock()

	ws, err := o.store.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if ws.ContainerName == "" {
		// Nothing live to remount; the next start picks the project up.
		return nil
	}

	info, err := o.engineInspect(ctx, ws.ContainerName)
	if err != nil && !errors.Is(err, runtime.ErrNotExist) {
		return o.flagError(ctx, id, err)
	}
	wasRunning := err == nil && info.Running

	if err == nil {
		if err := o.engineRemove(ctx, ws.ContainerName, true); err != nil && !errors.Is(err, runtime.ErrNotExist) {
			return o.flagError(ctx, id, err)
		}
	}

	pid := projectID
	ws.CurrentProjectID = &pid
	containerID, containerName, err := o.createContainer(ctx, ws, ws.VolumeName)
	if err != nil {
		return o.flagError(ctx, id, err)
	}
	status := core.WorkspaceStopped
	if wasRunning {
		if err := o.engineStart(ctx, containerName); err != nil {
			return o.flagError(ctx, id, err)
		}
		status = core.WorkspaceRunning
	}
	return o.store.SetProvisioned(ctx, store.SetProvisionedParams{
		ID:            id,
		ContainerName: containerName,
		ContainerID:   containerID,
		VolumeName:    ws.VolumeName,
		Status:        status,
	})
}

func (o *Orchestrator) setStatus(ctx context.Context, id string, status core.WorkspaceStatus) error {
	if err := o.store.UpdateWorkspaceStatus(ctx, id, status); err != nil {
		return err
	}
	observability.WorkspaceStatusTransitions.WithLabelValues(string(status)).Inc()
	return nil
}

// flagError records the error status so the recovery job retries later,
// then returns a runtime AppError for the caller to surface as 5xx.
func (o *Orchestrator) flagError(ctx context.Context, id string, cause error) error {
	o.log.Error("engine operation failed",
		zap.String("workspace_id", id), zap.Error(cause))
	if err := o.setStatus(ctx, id, core.WorkspaceError); err != nil {
		o.log.Error("error status update failed",
			zap.String("workspace_id", id), zap.Error(err))
	}
	return core.NewAppError(core.ErrRuntime, fmt.Sprintf("container engine: %s", cause))
}

func (o *Orchestrator) engineStart(ctx context.Context, name string) error {
	start := time.Now()
	err := o.rt.StartContainer(ctx, name)
	observability.EngineOpDuration.WithLabelValues("start").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.EngineOpFailures.WithLabelValues("start").Inc()
	}
	return err
}

func (o *Orchestrator) engineStop(ctx context.Context, name string) error {
	start := time.Now()
	err := o.rt.StopContainer(ctx, name, o.cfg.StopGrace)
	observability.EngineOpDuration.WithLabelValues("stop").Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, runtime.ErrNotExist) {
		observability.EngineOpFailures.WithLabelValues("stop").Inc()
	}
	return err
}

func (o *Orchestrator) engineRemove(ctx context.Context, name string, force bool) error {
	start := time.Now()
	err := o.rt.RemoveContainer(ctx, name, force)
	observability.EngineOpDuration.WithLabelValues("remove").Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, runtime.ErrNotExist) {
		observability.EngineOpFailures.WithLabelValues("remove").Inc()
	}
	return err
}

func (o *Orchestrator) engineInspect(ctx context.Context, name string) (runtime.ContainerInfo, error) {
	start := time.Now()
	info, err := o.rt.InspectContainer(ctx, name)
	observability.EngineOpDuration.WithLabelValues("inspect").Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, runtime.ErrNotExist) {
		observability.EngineOpFailures.WithLabelValues("inspect").Inc()
	}
	return info, err
}
