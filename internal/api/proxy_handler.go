package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/core"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/observability"
)

// Proxy forwards the request into the workspace's running container and
// streams the response back verbatim. Returns 503 without any outbound
// attempt when the container is not running. Aborts with the client:
// the outbound request carries the inbound context.
func (a *API) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ws, err := a.registry.Get(ctx, id)
	if err != nil {
		observability.ProxyRequestsTotal.WithLabelValues("not_found").Inc()
		WriteFailure(w, err)
		return
	}
	status, err := a.orch.ProbeStatus(ctx, ws.ID)
	if err != nil {
		observability.ProxyRequestsTotal.WithLabelValues("probe_error").Inc()
		WriteFailure(w, err)
		return
	}
	if !status.ContainerRunning {
		observability.ProxyRequestsTotal.WithLabelValues("unavailable").Inc()
		WriteError(w, core.NewAppError(core.ErrUnavailable, "workspace is not running"))
		return
	}

	target := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", status.ContainerName, ws.Config.Port),
	}
	rest := chi.URLParam(r, "*")

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = "/" + rest
			pr.Out.URL.RawQuery = r.URL.RawQuery
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			a.log.Warn("proxy forward failed",
				zap.String("workspace_id", id), zap.Error(err))
			observability.ProxyRequestsTotal.WithLabelValues("forward_error").Inc()
			WriteError(w, core.NewAppError(core.ErrUnavailable, "workspace did not respond"))
		},
	}

	// Proxy traffic counts as activity for the idle sweep.
	_ = a.queries.TouchWorkspace(ctx, ws.ID)

	observability.ProxyRequestsTotal.WithLabelValues("forwarded").Inc()
	proxy.ServeHTTP(w, r)
}
