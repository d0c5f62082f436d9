package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/api/middleware"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/binder"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/orchestrator"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/reconciler"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/registry"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/store"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/volumes"
)

// Directory is the registry surface the handlers drive.
type Directory interface {
	Create(ctx context.Context, arg registry.CreateParams) (core.Workspace, error)
	Get(ctx context.Context, id string) (core.Workspace, error)
	ListByUser(ctx context.Context, userID string) ([]core.Workspace, error)
	ListByType(ctx context.Context, userID string, t core.WorkspaceType) ([]core.Workspace, error)
	Update(ctx context.Context, arg registry.UpdateParams) (core.Workspace, error)
	SetDefault(ctx context.Context, id string) (core.Workspace, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, userID string) (core.WorkspaceStats, error)
}

// Lifecycle is the orchestrator surface the handlers drive.
type Lifecycle interface {
	Start(ctx context.Context, id string) (core.Workspace, error)
	Stop(ctx context.Context, id string) error
	Restart(ctx context.Context, id string) (core.Workspace, error)
	ProbeStatus(ctx context.Context, id string) (orchestrator.Status, error)
	Remove(ctx context.Context, id string) error
}

type API struct {
	pool      *pgxpool.Pool
	queries   *store.Queries
	registry  Directory
	orch      Lifecycle
	volumes   *volumes.Manager
	binder    *binder.Binder
	scheduler *reconciler.Scheduler
	log       *zap.Logger
}

func NewAPI(
	pool *pgxpool.Pool,
	reg Directory,
	orch Lifecycle,
	vols *volumes.Manager,
	bnd *binder.Binder,
	sched *reconciler.Scheduler,
	log *zap.Logger,
) *API {
	return &API{
		pool:      pool,
		queries:   store.New(pool),
		registry:  reg,
		orch:      orch,
		volumes:   vols,
		binder:    bnd,
		scheduler: sched,
		log:       log,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Logger)

	// Health endpoints
	r.Get("/healthz", a.HealthHandler)
	r.Get("/readyz", a.ReadyHandler)

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/types", a.ListTypes)
		r.Get("/", a.ListWorkspaces)
		r.Post("/", a.CreateWorkspace)
		r.Get("/stats", a.WorkspaceStats)
		r.Get("/type/{type}", a.ListWorkspacesByType)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.GetWorkspace)
			r.Put("/", a.UpdateWorkspace)
			r.Delete("/", a.DeleteWorkspace)
			r.Post("/set-default", a.SetDefault)

			r.Post("/start", a.StartWorkspace)
			r.Post("/stop", a.StopWorkspace)
			r.Post("/restart", a.RestartWorkspace)
			r.Get("/status", a.WorkspaceStatus)

			r.Get("/projects", a.WorkspaceProjects)
			r.Get("/compatible-projects", a.CompatibleProjects)
			r.Get("/project-stats", a.ProjectStats)
			r.Post("/assign-project", a.AssignProject)
			r.Post("/unassign-project", a.UnassignProject)
			r.Post("/switch-project", a.SwitchProject)

			r.Post("/volume/backup", a.BackupVolume)
			r.Post("/volume/restore", a.RestoreVolume)
			r.Post("/volume/clone", a.CloneVolume)

			// The proxy passes arbitrary methods and bodies through.
			r.HandleFunc("/proxy/*", a.Proxy)
			r.HandleFunc("/proxy", a.Proxy)
		})
	})

	r.Get("/projects/unassigned", a.UnassignedProjects)
	r.Post("/admin/reconcile", a.RunReconcile)

	return r
}

// currentUser pulls the caller identity injected by the auth gateway in
// front of this service.
func currentUser(r *http.Request) (string, *core.AppError) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return "", core.NewAppError(core.ErrBadRequest, "missing X-User-ID header")
	}
	return userID, nil
}
