package httpapi

import (
	"net/http"
	"time"

	"github.com/brainforge/braind/internal/apiclient"
)

// handler carries Deps into every route function; entries.go,
// search.go, tasks.go, and features.go all add methods to it.
type handler struct {
	deps Deps
}

// health reports backend and database reachability, mirroring
// apiclient.HealthStatus exactly since that's what brain-runner
// decodes.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	dbAvailable := true
	if h.deps.Meta != nil {
		if _, err := h.deps.Meta.Get("__healthcheck__"); err != nil {
			dbAvailable = false
		}
	}

	status := "ok"
	if !dbAvailable {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, apiclient.HealthStatus{
		Status:           status,
		BackendAvailable: true,
		DBAvailable:      dbAvailable,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}
