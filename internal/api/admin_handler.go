package api

import (
	"net/http"
)

// RunReconcile triggers every reconciliation job once and returns their
// per-job counts. Individual job failures land in their own result
// entries; the run itself always answers 200.
func (a *API) RunReconcile(w http.ResponseWriter, r *http.Request) {
	results := a.scheduler.RunAll(r.Context())
	WriteData(w, http.StatusOK, results)
}
