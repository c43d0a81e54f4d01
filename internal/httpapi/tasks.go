package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/deps"
	"github.com/brainforge/braind/internal/types"
)

func registerTaskRoutes(api *mux.Router, h *handler) {
	api.HandleFunc("/tasks", h.listProjects).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{projectId}", h.classifiedTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{projectId}/ready", h.ready).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{projectId}/waiting", h.waiting).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{projectId}/blocked", h.blocked).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{projectId}/next", h.nextTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{projectId}/{taskId}/claim", h.claimTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{projectId}/{taskId}/release", h.releaseTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{projectId}/{taskId}/claim-status", h.claimStatus).Methods(http.MethodGet)
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.listProjectIDs()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *handler) classifiedTasks(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	tasks, err := h.projectTasks(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	result := deps.Classify(tasks)
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":  result.Tasks,
		"cycles": result.Cycles,
		"stats":  result.Stats,
	})
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	h.taskSubset(w, r, deps.Ready)
}

func (h *handler) waiting(w http.ResponseWriter, r *http.Request) {
	h.taskSubset(w, r, deps.Waiting)
}

func (h *handler) blocked(w http.ResponseWriter, r *http.Request) {
	h.taskSubset(w, r, deps.Blocked)
}

func (h *handler) taskSubset(w http.ResponseWriter, r *http.Request, pick func(deps.Result) []types.ClassifiedTask) {
	projectID := mux.Vars(r)["projectId"]
	tasks, err := h.projectTasks(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	result := deps.Classify(tasks)
	writeJSON(w, http.StatusOK, map[string]any{"tasks": pick(result)})
}

func (h *handler) nextTask(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	tasks, err := h.projectTasks(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	result := deps.Classify(tasks)
	next := deps.Next(result)
	if next == nil {
		writeError(w, apierr.NotFound("httpapi: no ready task for project "+projectID))
		return
	}
	writeJSON(w, http.StatusOK, next)
}

type claimRequest struct {
	RunnerID string `json:"runnerId"`
}

func (h *handler) claimTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	if req.RunnerID == "" {
		writeError(w, apierr.Validation("runnerId is required", apierr.Detail{Field: "runnerId"}))
		return
	}

	result := h.deps.Claims.Claim(vars["projectId"], vars["taskId"], req.RunnerID)
	resp := map[string]any{
		"ok":        result.OK,
		"claimedBy": result.Claim.AgentID,
		"claimedAt": result.Claim.ClaimedAt,
	}
	if !result.OK {
		writeError(w, apierr.Conflict("httpapi: task already claimed by "+result.Claim.AgentID))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) releaseTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.deps.Claims.Release(vars["projectId"], vars["taskId"])
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *handler) claimStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	status := h.deps.Claims.Status(vars["projectId"], vars["taskId"])
	writeJSON(w, http.StatusOK, map[string]any{
		"found":     status.Found,
		"claimedBy": status.Claim.AgentID,
		"claimedAt": status.Claim.ClaimedAt,
		"isStale":   status.IsStale,
	})
}
