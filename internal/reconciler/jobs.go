// Package reconciler heals drift between the workspace registry and the
// container engine: idle containers, orphaned engine resources, and rows
// stuck in the error status. Every job is idempotent and treats each
// workspace independently, so one bad item never aborts a pass.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/observability"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/orchestrator"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/runtime"
)

// Job names, also the keys in the run-all response.
const (
	JobIdleSweep        = "idle-sweep"
	JobOrphanContainers = "orphan-containers"
	JobOrphanVolumes    = "orphan-volumes"
	JobErrorRecovery    = "error-recovery"
)

// Store is the registry view the jobs read and heal. *store.Queries
// satisfies it.
type Store interface {
	GetWorkspace(ctx context.Context, id string) (core.Workspace, error)
	ListRunningSince(ctx context.Context, cutoff time.Time) ([]core.Workspace, error)
	ListWorkspacesByStatus(ctx context.Context, status core.WorkspaceStatus) ([]core.Workspace, error)
	ListContainerNames(ctx context.Context) (map[string]bool, error)
	UpdateWorkspaceStatus(ctx context.Context, id string, status core.WorkspaceStatus) error
}

// Lifecycle is the per-workspace serialized path into the engine. The
// orchestrator satisfies it; going through it keeps reconciler stops from
// racing user starts.
type Lifecycle interface {
	Stop(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	ProbeStatus(ctx context.Context, id string) (orchestrator.Status, error)
}

// VolumeGC is the volume manager's garbage collection entry point.
type VolumeGC interface {
	CleanupOrphaned(ctx context.Context) (int, error)
}

type Config struct {
	IdleThreshold     time.Duration `envconfig:"WSD_IDLE_THRESHOLD" default:"24h"`
	IdleInterval      time.Duration `envconfig:"WSD_IDLE_INTERVAL" default:"1h"`
	OrphanCtrInterval time.Duration `envconfig:"WSD_ORPHAN_CONTAINER_INTERVAL" default:"6h"`
	OrphanVolInterval time.Duration `envconfig:"WSD_ORPHAN_VOLUME_INTERVAL" default:"24h"`
	RecoveryInterval  time.Duration `envconfig:"WSD_RECOVERY_INTERVAL" default:"30m"`
	StopGrace         time.Duration `envconfig:"WSD_STOP_GRACE" default:"10s"`
}

type Reconciler struct {
	store     Store
	rt        runtime.ContainerRuntime
	lifecycle Lifecycle
	volumes   VolumeGC
	cfg       Config
	log       *zap.Logger
}

func New(store Store, rt runtime.ContainerRuntime, lifecycle Lifecycle, volumes VolumeGC, cfg Config, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		rt:        rt,
		lifecycle: lifecycle,
		volumes:   volumes,
		cfg:       cfg,
		log:       log,
	}
}

// RegisterJobs wires the four jobs into the scheduler at their configured
// intervals.
func (r *Reconciler) RegisterJobs(s *Scheduler) {
	s.Register(JobIdleSweep, r.cfg.IdleInterval, r.SweepIdle)
	s.Register(JobOrphanContainers, r.cfg.OrphanCtrInterval, r.SweepOrphanedContainers)
	s.Register(JobOrphanVolumes, r.cfg.OrphanVolInterval, r.SweepOrphanedVolumes)
	s.Register(JobErrorRecovery, r.cfg.RecoveryInterval, r.RecoverErrored)
}

// SweepIdle stops containers of workspaces marked running whose last
// activity is older than the idle threshold. The registry claim is
// verified against the engine before stopping.
func (r *Reconciler) SweepIdle(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.cfg.IdleThreshold)
	idle, err := r.store.ListRunningSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list idle workspaces: %w", err)
	}

	stopped := 0
	for _, ws := range idle {
		status, err := r.lifecycle.ProbeStatus(ctx, ws.ID)
		if err != nil {
			r.log.Warn("idle sweep probe failed",
				zap.String("workspace_id", ws.ID), zap.Error(err))
			continue
		}
		if !status.ContainerRunning {
			// Registry was stale; record the truth and move on.
			_ = r.store.UpdateWorkspaceStatus(ctx, ws.ID, core.WorkspaceStopped)
			continue
		}
		if err := r.lifecycle.Stop(ctx, ws.ID); err != nil {
			r.log.Warn("idle sweep stop failed",
				zap.String("workspace_id", ws.ID), zap.Error(err))
			continue
		}
		observability.IdleContainersStopped.Inc()
		r.log.Info("idle workspace stopped",
			zap.String("workspace_id", ws.ID),
			zap.Time("last_active", ws.UpdatedAt),
		)
		stopped++
	}
	return stopped, nil
}

// SweepOrphanedContainers removes engine containers that carry the
// management label but have no registry row. Unlabeled containers are
// never touched, whatever their name. Ownership is resolved through the
// workspace label, not the recorded container_name: a row only gets its
// container_name written once the first start completes, so a container
// still provisioning belongs to a row that has not recorded it yet.
func (r *Reconciler) SweepOrphanedContainers(ctx context.Context) (int, error) {
	managed, err := r.rt.ListContainers(ctx, map[string]string{runtime.LabelManaged: "true"})
	if err != nil {
		return 0, fmt.Errorf("list managed containers: %w", err)
	}
	known, err := r.store.ListContainerNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list registry containers: %w", err)
	}

	removed := 0
	for _, info := range managed {
		if known[info.Name] {
			continue
		}
		if wsID := info.Labels[runtime.LabelWorkspace]; wsID != "" {
			_, err := r.store.GetWorkspace(ctx, wsID)
			if err == nil {
				// The owning row exists; the container is
				// mid-provisioning, not orphaned.
				continue
			}
			if core.AsAppError(err).Code != core.ErrNotFound {
				r.log.Warn("orphan sweep owner lookup failed",
					zap.String("container", info.Name), zap.Error(err))
				continue
			}
		}
		if info.Running {
			if err := r.rt.StopContainer(ctx, info.Name, r.cfg.StopGrace); err != nil && !errors.Is(err, runtime.ErrNotExist) {
				r.log.Warn("orphan container stop failed",
					zap.String("container", info.Name), zap.Error(err))
				continue
			}
		}
		if err := r.rt.RemoveContainer(ctx, info.Name, true); err != nil {
			if errors.Is(err, runtime.ErrNotExist) {
				continue
			}
			r.log.Warn("orphan container removal failed",
				zap.String("container", info.Name), zap.Error(err))
			continue
		}
		observability.OrphanedContainersRemoved.Inc()
		r.log.Info("orphaned container removed", zap.String("container", info.Name))
		removed++
	}
	return removed, nil
}

// SweepOrphanedVolumes delegates to the volume manager.
func (r *Reconciler) SweepOrphanedVolumes(ctx context.Context) (int, error) {
	return r.volumes.CleanupOrphaned(ctx)
}

// RecoverErrored inspects every workspace stuck in the error status. A
// container found running heals the row back to running; a recorded but
// dead container is removed and the row set to stopped; a row with no
// container is left for the next pass.
func (r *Reconciler) RecoverErrored(ctx context.Context) (int, error) {
	errored, err := r.store.ListWorkspacesByStatus(ctx, core.WorkspaceError)
	if err != nil {
		return 0, fmt.Errorf("list errored workspaces: %w", err)
	}

	recovered := 0
	for _, ws := range errored {
		status, err := r.lifecycle.ProbeStatus(ctx, ws.ID)
		if err != nil {
			r.log.Warn("error recovery probe failed",
				zap.String("workspace_id", ws.ID), zap.Error(err))
			continue
		}
		switch {
		case status.ContainerRunning:
			if err := r.store.UpdateWorkspaceStatus(ctx, ws.ID, core.WorkspaceRunning); err != nil {
				r.log.Warn("error recovery heal failed",
					zap.String("workspace_id", ws.ID), zap.Error(err))
				continue
			}
		case ws.ContainerName != "":
			if err := r.lifecycle.Remove(ctx, ws.ID); err != nil {
				r.log.Warn("error recovery removal failed",
					zap.String("workspace_id", ws.ID), zap.Error(err))
				continue
			}
		default:
			// Nothing recorded and nothing live; leave for the next pass.
			continue
		}
		observability.ErrorWorkspacesRecovered.Inc()
		r.log.Info("workspace recovered from error status",
			zap.String("workspace_id", ws.ID),
			zap.Bool("was_running", status.ContainerRunning),
		)
		recovered++
	}
	return recovered, nil
}
