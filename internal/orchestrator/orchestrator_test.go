package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/runtime"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/store"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/volumes"
)

// fakeStore keeps workspace rows in memory and satisfies both the
// orchestrator's and the volume manager's store surfaces.
type fakeStore struct {
	workspaces map[string]core.Workspace
}

func newFakeStore(ws ...core.Workspace) *fakeStore {
	s := &fakeStore{workspaces: make(map[string]core.Workspace)}
	for _, w := range ws {
		s.workspaces[w.ID] = w
	}
	return s
}

func (s *fakeStore) GetWorkspace(_ context.Context, id string) (core.Workspace, error) {
	ws, ok := s.workspaces[id]
	if !ok {
		return core.Workspace{}, core.NewAppError(core.ErrNotFound, "workspace not found")
	}
	return ws, nil
}

func (s *fakeStore) UpdateWorkspaceStatus(_ context.Context, id string, status core.WorkspaceStatus) error {
	ws, ok := s.workspaces[id]
	if !ok {
		return core.NewAppError(core.ErrNotFound, "workspace not found")
	}
	ws.Status = status
	s.workspaces[id] = ws
	return nil
}

func (s *fakeStore) SetProvisioned(_ context.Context, arg store.SetProvisionedParams) error {
	ws, ok := s.workspaces[arg.ID]
	if !ok {
		return core.NewAppError(core.ErrNotFound, "workspace not found")
	}
	ws.ContainerName = arg.ContainerName
	ws.ContainerID = arg.ContainerID
	ws.VolumeName = arg.VolumeName
	ws.Status = arg.Status
	s.workspaces[arg.ID] = ws
	return nil
}

func (s *fakeStore) ClearContainer(_ context.Context, id string, status core.WorkspaceStatus) error {
	ws, ok := s.workspaces[id]
	if !ok {
		return core.NewAppError(core.ErrNotFound, "workspace not found")
	}
	ws.ContainerName = ""
	ws.ContainerID = ""
	ws.Status = status
	s.workspaces[id] = ws
	return nil
}

func (s *fakeStore) ListVolumeNames(_ context.Context) (map[string]bool, error) {
	names := make(map[string]bool)
	for _, ws := range s.workspaces {
		if ws.VolumeName != "" {
			names[ws.VolumeName] = true
		}
	}
	return names, nil
}

func testWorkspace(id string) core.Workspace {
	cfg, _ := core.DefaultConfig(core.TypeVSCode)
	return core.Workspace{
		ID:     id,
		UserID: "user-1",
		Name:   "dev",
		Type:   core.TypeVSCode,
		Config: cfg,
		Status: core.WorkspaceActive,
	}
}

func newTestOrchestrator(st *fakeStore, rt *runtime.Fake) *Orchestrator {
	log := zap.NewNop()
	vols := volumes.New(rt, st, log)
	return New(st, rt, vols, Config{
		StopGrace: time.Second,
		Network:   "workspaces",
		MountPath: "/home/coder/workspace",
	}, log)
}

func TestStartProvisionsOnFirstUse(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ws, err := orch.Start(context.Background(), "w1")
	if err != nil {
		t.Fatalf("start: %s", err)
	}
	if ws.Status != core.WorkspaceRunning {
		t.Errorf("expected running, got %s", ws.Status)
	}
	if ws.ContainerName != core.ContainerNameFor("w1") {
		t.Errorf("unexpected container name %q", ws.ContainerName)
	}
	if !rt.HasVolume(core.VolumeNameFor("w1")) {
		t.Error("expected volume provisioned")
	}
	c := rt.Container(core.ContainerNameFor("w1"))
	if c == nil || !c.Running {
		t.Fatal("expected container running on the engine")
	}
	if c.Labels[runtime.LabelManaged] != "true" {
		t.Error("expected management label on the container")
	}
}

func TestStartIsIdempotentWhenRunning(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ctx := context.Background()
	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("first start: %s", err)
	}
	creates := countCalls(rt, "create/")

	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("second start: %s", err)
	}
	if got := countCalls(rt, "create/"); got != creates {
		t.Errorf("second start must not create a container, creates went %d -> %d", creates, got)
	}
}

func TestStartRestartsStoppedContainer(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ctx := context.Background()
	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("start: %s", err)
	}
	if err := orch.Stop(ctx, "w1"); err != nil {
		t.Fatalf("stop: %s", err)
	}
	if st.workspaces["w1"].Status != core.WorkspaceStopped {
		t.Fatalf("expected stopped, got %s", st.workspaces["w1"].Status)
	}

	ws, err := orch.Start(ctx, "w1")
	if err != nil {
		t.Fatalf("restart from stopped: %s", err)
	}
	if ws.Status != core.WorkspaceRunning {
		t.Errorf("expected running, got %s", ws.Status)
	}
	if got := countCalls(rt, "create/"); got != 1 {
		t.Errorf("restart must reuse the container, got %d creates", got)
	}
}

func TestStartReprovisionsWhenEngineLostContainer(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ctx := context.Background()
	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("start: %s", err)
	}
	// Simulate the container vanishing behind the registry's back.
	if err := rt.RemoveContainer(ctx, core.ContainerNameFor("w1"), true); err != nil {
		t.Fatalf("remove: %s", err)
	}

	ws, err := orch.Start(ctx, "w1")
	if err != nil {
		t.Fatalf("start after loss: %s", err)
	}
	if ws.Status != core.WorkspaceRunning {
		t.Errorf("expected running, got %s", ws.Status)
	}
	if rt.Container(core.ContainerNameFor("w1")) == nil {
		t.Error("expected container recreated")
	}
}

func TestStartFailureFlagsError(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	rt.Fail["create/"+core.ContainerNameFor("w1")] = errors.New("image pull failed")
	orch := newTestOrchestrator(st, rt)

	_, err := orch.Start(context.Background(), "w1")
	if err == nil {
		t.Fatal("expected error")
	}
	if core.AsAppError(err).Code != core.ErrRuntime {
		t.Errorf("expected WS_RUNTIME_ERROR, got %v", err)
	}
	if st.workspaces["w1"].Status != core.WorkspaceError {
		t.Errorf("expected error status recorded, got %s", st.workspaces["w1"].Status)
	}
}

func TestStopIsNoOpWithoutContainer(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	if err := orch.Stop(context.Background(), "w1"); err != nil {
		t.Fatalf("stop without container must be a no-op, got %s", err)
	}
	if len(rt.Calls) != 0 {
		t.Errorf("expected no engine calls, got %v", rt.Calls)
	}
}

func TestStopHealsWhenContainerGone(t *testing.T) {
	ws := testWorkspace("w1")
	ws.ContainerName = core.ContainerNameFor("w1")
	ws.Status = core.WorkspaceRunning
	st := newFakeStore(ws)
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	if err := orch.Stop(context.Background(), "w1"); err != nil {
		t.Fatalf("stop: %s", err)
	}
	if st.workspaces["w1"].Status != core.WorkspaceStopped {
		t.Errorf("expected stopped, got %s", st.workspaces["w1"].Status)
	}
}

func TestRestartFailureFlagsError(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ctx := context.Background()
	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("start: %s", err)
	}
	rt.Fail["start/"+core.ContainerNameFor("w1")] = errors.New("oom")

	_, err := orch.Restart(ctx, "w1")
	if err == nil {
		t.Fatal("expected restart to fail")
	}
	if st.workspaces["w1"].Status != core.WorkspaceError {
		t.Errorf("expected error status, got %s", st.workspaces["w1"].Status)
	}
}

func TestProbeStatusAbsent(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	status, err := orch.ProbeStatus(context.Background(), "w1")
	if err != nil {
		t.Fatalf("probe: %s", err)
	}
	if status.ContainerRunning || status.State != "absent" {
		t.Errorf("expected absent, got %+v", status)
	}
}

func TestRemoveIsSafeWhenAbsent(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	if err := orch.Remove(context.Background(), "w1"); err != nil {
		t.Fatalf("remove of absent container must succeed, got %s", err)
	}
}

func TestRemoveForceStopsRunning(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ctx := context.Background()
	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("start: %s", err)
	}
	if err := orch.Remove(ctx, "w1"); err != nil {
		t.Fatalf("remove: %s", err)
	}
	if rt.Container(core.ContainerNameFor("w1")) != nil {
		t.Error("expected container gone")
	}
	ws := st.workspaces["w1"]
	if ws.ContainerName != "" || ws.ContainerID != "" {
		t.Error("expected container handles cleared")
	}
}

func TestRemountRecreatesWithProject(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	ctx := context.Background()
	if _, err := orch.Start(ctx, "w1"); err != nil {
		t.Fatalf("start: %s", err)
	}
	if err := orch.Remount(ctx, "w1", "proj-9"); err != nil {
		t.Fatalf("remount: %s", err)
	}
	c := rt.Container(core.ContainerNameFor("w1"))
	if c == nil {
		t.Fatal("expected container recreated")
	}
	if !c.Running {
		t.Error("remount must restore the previous run state")
	}
	if got := countCalls(rt, "create/"); got != 2 {
		t.Errorf("expected 2 creates across start+remount, got %d", got)
	}
}

func TestRemountNoOpWithoutContainer(t *testing.T) {
	st := newFakeStore(testWorkspace("w1"))
	rt := runtime.NewFake()
	orch := newTestOrchestrator(st, rt)

	if err := orch.Remount(context.Background(), "w1", "proj-9"); err != nil {
		t.Fatalf("remount without container must be a no-op, got %s", err)
	}
	if len(rt.Calls) != 0 {
		t.Errorf("expected no engine calls, got %v", rt.Calls)
	}
}

func countCalls(rt *runtime.Fake, prefix string) int {
	var n int
	for _, c := range rt.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
