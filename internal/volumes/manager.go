// Package volumes manages the per-workspace persistent volumes: creation,
// backup, restore, clone, and garbage collection of orphans.
package volumes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/observability"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/runtime"
)

// Store is the registry view this manager needs. *store.Queries satisfies it.
type Store interface {
	ListVolumeNames(ctx context.Context) (map[string]bool, error)
}

type Manager struct {
	rt    runtime.ContainerRuntime
	store Store
	log   *zap.Logger
}

func New(rt runtime.ContainerRuntime, store Store, log *zap.Logger) *Manager {
	return &Manager{rt: rt, store: store, log: log}
}

// Ensure creates the workspace volume if absent and returns its name.
// Volume creation is idempotent on the engine side.
func (m *Manager) Ensure(ctx context.Context, workspaceID string) (string, error) {
	name := core.VolumeNameFor(workspaceID)
	if err := m.rt.CreateVolume(ctx, name, runtime.ManagedLabels(workspaceID)); err != nil {
		return "", fmt.Errorf("ensure volume: %w", err)
	}
	return name, nil
}

// Remove deletes the workspace volume. Absent volumes are not an error.
func (m *Manager) Remove(ctx context.Context, workspaceID string) error {
	name := core.VolumeNameFor(workspaceID)
	if err := m.rt.RemoveVolume(ctx, name); err != nil && !errors.Is(err, runtime.ErrNotExist) {
		return fmt.Errorf("remove volume: %w", err)
	}
	return nil
}

// Backup snapshots the workspace volume into a fresh backup volume and
// returns the backup id. Backup volumes carry the backup label so the
// orphan sweep skips them.
func (m *Manager) Backup(ctx context.Context, workspaceID string) (string, error) {
	src := core.VolumeNameFor(workspaceID)
	backupID := uuid.New().String()[:8]
	dst := core.BackupVolumeName(workspaceID, backupID)

	labels := runtime.ManagedLabels(workspaceID)
	labels[runtime.LabelBackup] = "true"
	if err := m.rt.CreateVolume(ctx, dst, labels); err != nil {
		return "", fmt.Errorf("create backup volume: %w", err)
	}
	if err := m.rt.CopyVolume(ctx, src, dst); err != nil {
		// Don't leave a half-written backup behind.
		_ = m.rt.RemoveVolume(ctx, dst)
		return "", fmt.Errorf("backup volume: %w", err)
	}

	m.log.Info("volume backed up",
		zap.String("workspace_id", workspaceID),
		zap.String("backup_id", backupID),
	)
	return backupID, nil
}

// Restore copies a backup back over the live volume. The workspace
// container must be stopped; the orchestrator enforces that.
func (m *Manager) Restore(ctx context.Context, workspaceID, backupID string) error {
	src := core.BackupVolumeName(workspaceID, backupID)
	dst := core.VolumeNameFor(workspaceID)
	if err := m.rt.CopyVolume(ctx, src, dst); err != nil {
		if errors.Is(err, runtime.ErrNotExist) {
			return core.NewAppError(core.ErrNotFound, fmt.Sprintf("backup %s not found", backupID))
		}
		return fmt.Errorf("restore volume: %w", err)
	}
	m.log.Info("volume restored",
		zap.String("workspace_id", workspaceID),
		zap.String("backup_id", backupID),
	)
	return nil
}

// Clone duplicates the source workspace's volume into the target
// workspace's volume, creating the target volume if needed.
func (m *Manager) Clone(ctx context.Context, srcWorkspaceID, dstWorkspaceID string) error {
	src := core.VolumeNameFor(srcWorkspaceID)
	dst, err := m.Ensure(ctx, dstWorkspaceID)
	if err != nil {
		return err
	}
	if err := m.rt.CopyVolume(ctx, src, dst); err != nil {
		if errors.Is(err, runtime.ErrNotExist) {
			return core.NewAppError(core.ErrNotFound, "source volume not found")
		}
		return fmt.Errorf("clone volume: %w", err)
	}
	return nil
}

// CleanupOrphaned removes every managed, non-backup volume that no
// registry row references, returning the count removed. One unremovable
// volume does not abort the rest.
func (m *Manager) CleanupOrphaned(ctx context.Context) (int, error) {
	managed, err := m.rt.ListVolumes(ctx, map[string]string{runtime.LabelManaged: "true"})
	if err != nil {
		return 0, fmt.Errorf("list managed volumes: %w", err)
	}
	backups, err := m.rt.ListVolumes(ctx, map[string]string{runtime.LabelBackup: "true"})
	if err != nil {
		return 0, fmt.Errorf("list backup volumes: %w", err)
	}
	isBackup := make(map[string]bool, len(backups))
	for _, name := range backups {
		isBackup[name] = true
	}

	referenced, err := m.store.ListVolumeNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list registry volumes: %w", err)
	}

	removed := 0
	for _, name := range managed {
		if referenced[name] || isBackup[name] {
			continue
		}
		if err := m.rt.RemoveVolume(ctx, name); err != nil {
			if errors.Is(err, runtime.ErrNotExist) {
				continue
			}
			m.log.Warn("orphaned volume removal failed",
				zap.String("volume", name), zap.Error(err))
			continue
		}
		observability.OrphanedVolumesRemoved.Inc()
		m.log.Info("orphaned volume removed", zap.String("volume", name))
		removed++
	}
	return removed, nil
}
