package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// API server metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ws_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_active_requests",
		Help: "Current in-flight requests",
	})

	// Container orchestration metrics
	EngineOpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ws_engine_op_duration_seconds",
		Help:    "Container engine call duration",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"op"})

	EngineOpFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_engine_op_failures_total",
		Help: "Container engine call failures",
	}, []string{"op"})

	WorkspaceStatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_workspace_status_transitions_total",
		Help: "Workspace status transition count",
	}, []string{"to"})

	// Reconciler metrics
	ReconcileRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_reconcile_runs_total",
		Help: "Reconciliation job runs",
	}, []string{"job", "outcome"})

	ReconcileDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ws_reconcile_duration_seconds",
		Help:    "Reconciliation job duration",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"job"})

	IdleContainersStopped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_idle_containers_stopped_total",
		Help: "Containers stopped by the idle sweep",
	})

	OrphanedContainersRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_orphaned_containers_removed_total",
		Help: "Containers removed by the orphan sweep",
	})

	OrphanedVolumesRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_orphaned_volumes_removed_total",
		Help: "Volumes removed by the orphan sweep",
	})

	ErrorWorkspacesRecovered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_error_workspaces_recovered_total",
		Help: "Workspaces healed out of the error status",
	})

	// Proxy metrics
	ProxyRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_proxy_requests_total",
		Help: "Requests forwarded into workspace containers",
	}, []string{"outcome"})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, ActiveRequests,
		EngineOpDuration, EngineOpFailures, WorkspaceStatusTransitions,
		ReconcileRuns, ReconcileDuration,
		IdleContainersStopped, OrphanedContainersRemoved,
		OrphanedVolumesRemoved, ErrorWorkspacesRecovered,
		ProxyRequestsTotal,
	)
}
