package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("workspaces"),
		postgres.WithUsername("ws"),
		postgres.WithPassword("ws_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections"),
		),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	pool, err := NewPool(ctx, connStr, 5)
	if err != nil {
		t.Fatalf("failed to connect: %s", err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to run migrations: %s", err)
	}

	queries := New(pool)

	t.Run("CreateWorkspace", func(t *testing.T) {
		cfg, _ := core.DefaultConfig(core.TypeVSCode)
		ws, err := queries.CreateWorkspace(ctx, CreateWorkspaceParams{
			ID:        "ws-store-1",
			UserID:    "user-1",
			Name:      "dev",
			Type:      core.TypeVSCode,
			Config:    cfg,
			IsDefault: true,
		})
		if err != nil {
			t.Fatalf("failed to create workspace: %s", err)
		}
		if ws.Status != core.WorkspaceActive {
			t.Errorf("expected status active, got %s", ws.Status)
		}
		if ws.Config.Image != cfg.Image {
			t.Errorf("config round-trip lost image: got %q want %q", ws.Config.Image, cfg.Image)
		}
	})

	t.Run("GetWorkspaceNotFound", func(t *testing.T) {
		_, err := queries.GetWorkspace(ctx, "no-such-id")
		var appErr *core.AppError
		if !errors.As(err, &appErr) || appErr.Code != core.ErrNotFound {
			t.Fatalf("expected WS_NOT_FOUND, got %v", err)
		}
	})

	t.Run("OneDefaultPerUser", func(t *testing.T) {
		cfg, _ := core.DefaultConfig(core.TypeJupyter)
		// Inserting a second default for the same user must trip the
		// partial unique index.
		_, err := queries.CreateWorkspace(ctx, CreateWorkspaceParams{
			ID:        "ws-store-2",
			UserID:    "user-1",
			Name:      "notebooks",
			Type:      core.TypeJupyter,
			Config:    cfg,
			IsDefault: true,
		})
		if err == nil {
			t.Fatal("expected unique violation for second default")
		}

		_, err = queries.CreateWorkspace(ctx, CreateWorkspaceParams{
			ID:     "ws-store-2",
			UserID: "user-1",
			Name:   "notebooks",
			Type:   core.TypeJupyter,
			Config: cfg,
		})
		if err != nil {
			t.Fatalf("non-default insert failed: %s", err)
		}
	})

	t.Run("ClearThenMarkDefault", func(t *testing.T) {
		if err := queries.ClearDefault(ctx, "user-1"); err != nil {
			t.Fatalf("clear default: %s", err)
		}
		ws, err := queries.MarkDefault(ctx, "ws-store-2")
		if err != nil {
			t.Fatalf("mark default: %s", err)
		}
		if !ws.IsDefault {
			t.Error("expected ws-store-2 to be default")
		}
		old, err := queries.GetWorkspace(ctx, "ws-store-1")
		if err != nil {
			t.Fatalf("get workspace: %s", err)
		}
		if old.IsDefault {
			t.Error("expected ws-store-1 to lose the default flag")
		}
	})

	t.Run("SetProvisionedAndClear", func(t *testing.T) {
		err := queries.SetProvisioned(ctx, SetProvisionedParams{
			ID:            "ws-store-1",
			ContainerName: core.ContainerNameFor("ws-store-1"),
			ContainerID:   "cid-123",
			VolumeName:    core.VolumeNameFor("ws-store-1"),
			Status:        core.WorkspaceRunning,
		})
		if err != nil {
			t.Fatalf("set provisioned: %s", err)
		}
		ws, _ := queries.GetWorkspace(ctx, "ws-store-1")
		if ws.ContainerName == "" || ws.VolumeName == "" {
			t.Fatal("expected provision fields to be set")
		}
		if ws.Status != core.WorkspaceRunning {
			t.Errorf("expected running, got %s", ws.Status)
		}

		if err := queries.ClearContainer(ctx, "ws-store-1", core.WorkspaceStopped); err != nil {
			t.Fatalf("clear container: %s", err)
		}
		ws, _ = queries.GetWorkspace(ctx, "ws-store-1")
		if ws.ContainerName != "" || ws.ContainerID != "" {
			t.Error("expected container fields cleared")
		}
		if ws.VolumeName == "" {
			t.Error("volume name must survive a container clear")
		}
	})

	t.Run("ListRunningSince", func(t *testing.T) {
		if err := queries.UpdateWorkspaceStatus(ctx, "ws-store-2", core.WorkspaceRunning); err != nil {
			t.Fatalf("update status: %s", err)
		}
		idle, err := queries.ListRunningSince(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			t.Fatalf("list running since: %s", err)
		}
		if len(idle) != 0 {
			t.Errorf("freshly touched workspace must not count as idle, got %d", len(idle))
		}
		idle, err = queries.ListRunningSince(ctx, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("list running since: %s", err)
		}
		if len(idle) != 1 {
			t.Errorf("expected 1 idle workspace, got %d", len(idle))
		}
	})

	t.Run("ProjectBinding", func(t *testing.T) {
		p, err := queries.CreateProject(ctx, CreateProjectParams{
			ID:     "proj-1",
			UserID: "user-1",
			Name:   "api-server",
		})
		if err != nil {
			t.Fatalf("create project: %s", err)
		}
		if p.WorkspaceID != nil || p.WorkspaceType != nil {
			t.Fatal("new project must be unbound")
		}

		p, err = queries.AssignProject(ctx, "proj-1", "ws-store-1", core.TypeVSCode)
		if err != nil {
			t.Fatalf("assign project: %s", err)
		}
		if p.WorkspaceID == nil || *p.WorkspaceID != "ws-store-1" {
			t.Error("expected project bound to ws-store-1")
		}
		if p.WorkspaceType == nil || *p.WorkspaceType != core.TypeVSCode {
			t.Error("expected workspace type pinned on assignment")
		}

		compat, err := queries.ListCompatibleProjects(ctx, "user-1", core.TypeJupyter)
		if err != nil {
			t.Fatalf("list compatible: %s", err)
		}
		for _, cp := range compat {
			if cp.ID == "proj-1" {
				t.Error("vscode-pinned project must not be jupyter-compatible")
			}
		}

		p, err = queries.UnassignProject(ctx, "proj-1")
		if err != nil {
			t.Fatalf("unassign project: %s", err)
		}
		if p.WorkspaceID != nil || p.WorkspaceType != nil {
			t.Error("expected both binding columns cleared")
		}
	})

	t.Run("DeleteWorkspace", func(t *testing.T) {
		if _, err := queries.AssignProject(ctx, "proj-1", "ws-store-2", core.TypeJupyter); err != nil {
			t.Fatalf("assign project: %s", err)
		}
		if err := queries.UnassignProjectsByWorkspace(ctx, "ws-store-2"); err != nil {
			t.Fatalf("unassign by workspace: %s", err)
		}
		if err := queries.DeleteWorkspace(ctx, "ws-store-2"); err != nil {
			t.Fatalf("delete workspace: %s", err)
		}
		err := queries.DeleteWorkspace(ctx, "ws-store-2")
		var appErr *core.AppError
		if !errors.As(err, &appErr) || appErr.Code != core.ErrNotFound {
			t.Fatalf("expected WS_NOT_FOUND on double delete, got %v", err)
		}
	})

	t.Run("PreservedVolumeStaysReferenced", func(t *testing.T) {
		// Pinned names keep showing up after their workspace row is
		// gone, so the orphan sweep never collects them.
		if err := queries.PreserveVolume(ctx, "wsvol-kept"); err != nil {
			t.Fatalf("preserve volume: %s", err)
		}
		if err := queries.PreserveVolume(ctx, "wsvol-kept"); err != nil {
			t.Fatalf("preserve volume twice: %s", err)
		}
		names, err := queries.ListVolumeNames(ctx)
		if err != nil {
			t.Fatalf("list volume names: %s", err)
		}
		if !names["wsvol-kept"] {
			t.Error("preserved volume missing from referenced set")
		}
	})

	t.Run("PromoteOldest", func(t *testing.T) {
		ws, err := queries.PromoteOldest(ctx, "user-1")
		if err != nil {
			t.Fatalf("promote oldest: %s", err)
		}
		if ws.ID != "ws-store-1" || !ws.IsDefault {
			t.Errorf("expected ws-store-1 promoted to default, got %s default=%v", ws.ID, ws.IsDefault)
		}
	})
}
