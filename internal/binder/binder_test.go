package binder

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
)

type fakeStore struct {
	workspaces map[string]core.Workspace
	projects   map[string]core.Project
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workspaces: make(map[string]core.Workspace),
		projects:   make(map[string]core.Project),
	}
}

func (s *fakeStore) GetWorkspace(_ context.Context, id string) (core.Workspace, error) {
	ws, ok := s.workspaces[id]
	if !ok {
		return core.Workspace{}, core.NewAppError(core.ErrNotFound, "workspace not found")
	}
	return ws, nil
}

func (s *fakeStore) GetProject(_ context.Context, id string) (core.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return core.Project{}, core.NewAppError(core.ErrNotFound, "project not found")
	}
	return p, nil
}

func (s *fakeStore) AssignProject(_ context.Context, projectID, workspaceID string, t core.WorkspaceType) (core.Project, error) {
	p := s.projects[projectID]
	p.WorkspaceID = &workspaceID
	p.WorkspaceType = &t
	s.projects[projectID] = p
	return p, nil
}

func (s *fakeStore) UnassignProject(_ context.Context, projectID string) (core.Project, error) {
	p := s.projects[projectID]
	p.WorkspaceID = nil
	p.WorkspaceType = nil
	s.projects[projectID] = p
	return p, nil
}

func (s *fakeStore) ListProjectsByWorkspace(_ context.Context, workspaceID string) ([]core.Project, error) {
	var out []core.Project
	for _, p := range s.projects {
		if p.WorkspaceID != nil && *p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCompatibleProjects(_ context.Context, userID string, t core.WorkspaceType) ([]core.Project, error) {
	var out []core.Project
	for _, p := range s.projects {
		if p.UserID == userID && p.CompatibleWith(t) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) ListUnassignedProjects(_ context.Context, userID string) ([]core.Project, error) {
	var out []core.Project
	for _, p := range s.projects {
		if p.UserID == userID && p.WorkspaceID == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) CountProjectsByUser(_ context.Context, userID string) (int, error) {
	var n int
	for _, p := range s.projects {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountProjectsByWorkspace(_ context.Context, workspaceID string) (int, error) {
	var n int
	for _, p := range s.projects {
		if p.WorkspaceID != nil && *p.WorkspaceID == workspaceID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) SetCurrentProject(_ context.Context, id string, projectID *string) error {
	ws := s.workspaces[id]
	ws.CurrentProjectID = projectID
	s.workspaces[id] = ws
	return nil
}

type fakeMounter struct {
	calls []string
	err   error
}

func (m *fakeMounter) Remount(_ context.Context, workspaceID, projectID string) error {
	m.calls = append(m.calls, workspaceID+"/"+projectID)
	return m.err
}

func seed(st *fakeStore) {
	st.workspaces["w1"] = core.Workspace{ID: "w1", UserID: "alice", Type: core.TypeVSCode}
	st.workspaces["w2"] = core.Workspace{ID: "w2", UserID: "bob", Type: core.TypeVSCode}
	st.projects["p1"] = core.Project{ID: "p1", UserID: "alice", Name: "api"}
	st.projects["p2"] = core.Project{ID: "p2", UserID: "bob", Name: "web"}
}

func TestAssign(t *testing.T) {
	st := newFakeStore()
	seed(st)
	b := New(st, &fakeMounter{}, zap.NewNop())

	p, err := b.Assign(context.Background(), "p1", "w1")
	if err != nil {
		t.Fatalf("assign: %s", err)
	}
	if p.WorkspaceID == nil || *p.WorkspaceID != "w1" {
		t.Error("expected project bound to w1")
	}
	if p.WorkspaceType == nil || *p.WorkspaceType != core.TypeVSCode {
		t.Error("expected workspace type pinned")
	}
}

func TestAssignRejectsCrossUser(t *testing.T) {
	st := newFakeStore()
	seed(st)
	b := New(st, &fakeMounter{}, zap.NewNop())

	_, err := b.Assign(context.Background(), "p2", "w1")
	if core.AsAppError(err).Code != core.ErrBadRequest {
		t.Fatalf("expected WS_BAD_REQUEST, got %v", err)
	}
}

func TestAssignRejectsIncompatibleType(t *testing.T) {
	st := newFakeStore()
	seed(st)
	pinned := core.TypeJupyter
	p := st.projects["p1"]
	p.WorkspaceType = &pinned
	st.projects["p1"] = p
	b := New(st, &fakeMounter{}, zap.NewNop())

	_, err := b.Assign(context.Background(), "p1", "w1")
	if core.AsAppError(err).Code != core.ErrBadRequest {
		t.Fatalf("expected WS_BAD_REQUEST, got %v", err)
	}
}

func TestAssignUnknownProject(t *testing.T) {
	st := newFakeStore()
	seed(st)
	b := New(st, &fakeMounter{}, zap.NewNop())

	_, err := b.Assign(context.Background(), "nope", "w1")
	if core.AsAppError(err).Code != core.ErrNotFound {
		t.Fatalf("expected WS_NOT_FOUND, got %v", err)
	}
}

func TestSwitchRemountsAndSetsCurrent(t *testing.T) {
	st := newFakeStore()
	seed(st)
	mounter := &fakeMounter{}
	b := New(st, mounter, zap.NewNop())

	ws, err := b.Switch(context.Background(), "w1", "p1")
	if err != nil {
		t.Fatalf("switch: %s", err)
	}
	if len(mounter.calls) != 1 || mounter.calls[0] != "w1/p1" {
		t.Errorf("expected one remount for w1/p1, got %v", mounter.calls)
	}
	if ws.CurrentProjectID == nil || *ws.CurrentProjectID != "p1" {
		t.Error("expected current project recorded")
	}
	// Switching implicitly binds.
	p := st.projects["p1"]
	if p.WorkspaceID == nil || *p.WorkspaceID != "w1" {
		t.Error("expected implicit assignment")
	}
}

func TestSwitchFailedRemountLeavesRegistryUntouched(t *testing.T) {
	st := newFakeStore()
	seed(st)
	mounter := &fakeMounter{err: errors.New("engine down")}
	b := New(st, mounter, zap.NewNop())

	_, err := b.Switch(context.Background(), "w1", "p1")
	if err == nil {
		t.Fatal("expected switch to fail")
	}
	if st.workspaces["w1"].CurrentProjectID != nil {
		t.Error("current project must stay unset when the remount fails")
	}
	if p := st.projects["p1"]; p.WorkspaceID != nil || p.WorkspaceType != nil {
		t.Error("implicit binding must not persist when the remount fails")
	}
}

func TestSwitchRejectsCrossUser(t *testing.T) {
	st := newFakeStore()
	seed(st)
	mounter := &fakeMounter{}
	b := New(st, mounter, zap.NewNop())

	_, err := b.Switch(context.Background(), "w1", "p2")
	if core.AsAppError(err).Code != core.ErrBadRequest {
		t.Fatalf("expected WS_BAD_REQUEST, got %v", err)
	}
	if len(mounter.calls) != 0 {
		t.Error("remount must not run for a rejected switch")
	}
}

func TestUnassign(t *testing.T) {
	st := newFakeStore()
	seed(st)
	b := New(st, &fakeMounter{}, zap.NewNop())

	ctx := context.Background()
	if _, err := b.Assign(ctx, "p1", "w1"); err != nil {
		t.Fatalf("assign: %s", err)
	}
	p, err := b.Unassign(ctx, "p1")
	if err != nil {
		t.Fatalf("unassign: %s", err)
	}
	if p.WorkspaceID != nil || p.WorkspaceType != nil {
		t.Error("expected both binding fields cleared")
	}
}

func TestStats(t *testing.T) {
	st := newFakeStore()
	seed(st)
	b := New(st, &fakeMounter{}, zap.NewNop())

	ctx := context.Background()
	if _, err := b.Switch(ctx, "w1", "p1"); err != nil {
		t.Fatalf("switch: %s", err)
	}
	stats, err := b.Stats(ctx, "w1")
	if err != nil {
		t.Fatalf("stats: %s", err)
	}
	if stats.TotalProjects != 1 || stats.AssignedProjects != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.CurrentProject == nil || stats.CurrentProject.ID != "p1" {
		t.Error("expected current project in stats")
	}
}
