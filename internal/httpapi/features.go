package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainforge/braind/internal/deps"
	"github.com/brainforge/braind/internal/features"
	"github.com/brainforge/braind/internal/types"
)

func registerFeatureRoutes(api *mux.Router, h *handler) {
	api.HandleFunc("/features", h.listFeatureProjects).Methods(http.MethodGet)
	api.HandleFunc("/features/{projectId}", h.classifiedFeatures).Methods(http.MethodGet)
	api.HandleFunc("/features/{projectId}/ready", h.readyFeatures).Methods(http.MethodGet)
}

func (h *handler) listFeatureProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.listProjectIDs()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// featuresForProject classifies projectID's tasks, then aggregates
// the classified set into feature rollups — the Feature Engine always
// runs on top of the Dependency Engine's output (spec.md §4.4).
func (h *handler) featuresForProject(projectID string) (features.Result, error) {
	tasks, err := h.projectTasks(projectID)
	if err != nil {
		return features.Result{}, err
	}
	classified := deps.Classify(tasks).Tasks
	return features.Aggregate(classified), nil
}

func (h *handler) classifiedFeatures(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	result, err := h.featuresForProject(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"features": result.Features,
		"cycles":   result.Cycles,
	})
}

func (h *handler) readyFeatures(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	result, err := h.featuresForProject(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	ready := features.Ready(result)
	if ready == nil {
		ready = []types.Feature{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": ready})
}
