// Package httpapi implements braind's entire wire contract (spec.md
// §6): a gorilla/mux router over the Entry Service, Dependency Engine,
// Feature Engine, and Claim Registry, grounded on the teacher's
// internal/server package (mux.Router + SecurityHeadersMiddleware)
// and internal/handlers' struct-based handler style.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainforge/braind/internal/claims"
	"github.com/brainforge/braind/internal/entries"
	"github.com/brainforge/braind/internal/logging"
	"github.com/brainforge/braind/internal/notebook/metastore"
)

// Deps bundles everything the HTTP layer reads and writes through.
// Nothing here is reachable except via these injected dependencies, so
// handlers stay unit-testable with fakes the same way the teacher's
// handlers took *tasks.Queue/*tasks.Store rather than reaching for
// globals.
type Deps struct {
	Entries *entries.Service
	Claims  *claims.Registry
	Meta    *metastore.Store
	Log     *logging.Logger
}

// NewRouter builds the full /api/v1 route tree over deps.
func NewRouter(deps Deps) *mux.Router {
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}

	h := &handler{deps: deps}

	root := mux.NewRouter()
	root.Use(securityHeadersMiddleware, bodyLimitMiddleware)

	api := root.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", h.health).Methods(http.MethodGet)

	registerEntryRoutes(api, h)
	registerSearchRoutes(api, h)
	registerTaskRoutes(api, h)
	registerFeatureRoutes(api, h)

	return root
}
