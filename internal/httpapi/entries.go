package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/entries"
	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/types"
)

func registerEntryRoutes(api *mux.Router, h *handler) {
	api.HandleFunc("/entries", h.createEntry).Methods(http.MethodPost)
	api.HandleFunc("/entries", h.listEntries).Methods(http.MethodGet)

	api.HandleFunc("/entries/{id}/sections", h.listSections).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}/sections/{title}", h.getSection).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}/backlinks", h.backlinks).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}/outlinks", h.outlinks).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}/related", h.related).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}/verify", h.verifyEntry).Methods(http.MethodPost)

	api.HandleFunc("/entries/{idOrPath:.+}", h.getEntry).Methods(http.MethodGet)
	api.HandleFunc("/entries/{idOrPath:.+}", h.updateEntry).Methods(http.MethodPatch)
	api.HandleFunc("/entries/{idOrPath:.+}", h.deleteEntry).Methods(http.MethodDelete)
}

// createEntryRequest is the POST /entries wire body.
type createEntryRequest struct {
	Type                string    `json:"type"`
	Title               string    `json:"title"`
	Body                string    `json:"body"`
	Tags                []string  `json:"tags"`
	ProjectID           string    `json:"project_id"`
	Priority            *string   `json:"priority"`
	DependsOn           []string  `json:"depends_on"`
	ParentID            string    `json:"parent_id"`
	FeatureID           string    `json:"feature_id"`
	FeaturePriority     *string   `json:"feature_priority"`
	FeatureDependsOn    []string  `json:"feature_depends_on"`
	Workdir             string    `json:"workdir"`
	Worktree            string    `json:"worktree"`
	GitRemote           string    `json:"git_remote"`
	GitBranch           string    `json:"git_branch"`
	UserOriginalRequest string    `json:"user_original_request"`
	RelatedEntries      []string  `json:"related_entries"`
}

func (h *handler) createEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}

	createReq := entries.CreateRequest{
		Type:                types.EntryType(req.Type),
		Title:               req.Title,
		Body:                req.Body,
		Tags:                req.Tags,
		ProjectID:           req.ProjectID,
		DependsOn:           req.DependsOn,
		ParentID:            req.ParentID,
		FeatureID:           req.FeatureID,
		FeatureDependsOn:    req.FeatureDependsOn,
		Workdir:             req.Workdir,
		Worktree:            req.Worktree,
		GitRemote:           req.GitRemote,
		GitBranch:           req.GitBranch,
		UserOriginalRequest: req.UserOriginalRequest,
		RelatedEntries:      req.RelatedEntries,
	}
	if req.Priority != nil {
		p := types.Priority(*req.Priority)
		createReq.Priority = &p
	}
	if req.FeaturePriority != nil {
		p := types.Priority(*req.FeaturePriority)
		createReq.FeaturePriority = &p
	}

	res, err := h.deps.Entries.Create(createReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) getEntry(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["idOrPath"]
	row, err := h.deps.Entries.Recall(ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowToEntry(*row))
}

// updateEntryRequest is the PATCH /entries/{idOrPath} wire body,
// matching apiclient.UpdateEntryRequest plus the fields the scheduler
// never needs to set itself (tags, priority, parent_id).
type updateEntryRequest struct {
	Status           *string   `json:"status"`
	Title            *string   `json:"title"`
	Content          *string   `json:"content"`
	Append           *string   `json:"append"`
	Note             *string   `json:"note"`
	Tags             *[]string `json:"tags"`
	Priority         *string   `json:"priority"`
	DependsOn        *[]string `json:"depends_on"`
	ParentID         *string   `json:"parent_id"`
	FeatureID        *string   `json:"feature_id"`
	FeaturePriority  *string   `json:"feature_priority"`
	FeatureDependsOn *[]string `json:"feature_depends_on"`
}

func (h *handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["idOrPath"]

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}

	updateReq := entries.UpdateRequest{
		Ref:       ref,
		Title:     req.Title,
		Body:      req.Content,
		Append:    req.Append,
		Note:      req.Note,
		Tags:      req.Tags,
		DependsOn: req.DependsOn,
		ParentID:  req.ParentID,
		FeatureID: req.FeatureID,
	}
	if req.Status != nil {
		s := types.EntryStatus(*req.Status)
		updateReq.Status = &s
	}
	if req.Priority != nil {
		p := types.Priority(*req.Priority)
		updateReq.Priority = &p
	}
	if req.FeaturePriority != nil {
		p := types.Priority(*req.FeaturePriority)
		updateReq.FeaturePriority = &p
	}
	updateReq.FeatureDependsOn = req.FeatureDependsOn

	row, err := h.deps.Entries.Update(updateReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowToEntry(*row))
}

func (h *handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["idOrPath"]
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, apierr.Validation("delete requires ?confirm=true", apierr.Detail{Field: "confirm", Message: "must be \"true\""}))
		return
	}
	if err := h.deps.Entries.Delete(ref); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rows, err := h.deps.Entries.List(notebook.ListFilters{
		Type:  q.Get("type"),
		Tag:   q.Get("tag"),
		Match: q.Get("match"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]types.Entry, 0, len(rows))
	for _, row := range rows {
		e := rowToEntry(row)
		if status := q.Get("status"); status != "" && string(e.Status) != status {
			continue
		}
		if parentID := q.Get("parent_id"); parentID != "" && e.ParentID != parentID {
			continue
		}
		if filename := q.Get("filename"); filename != "" && !strings.Contains(row.Path, filename) {
			continue
		}
		if global := q.Get("global"); global == "true" && e.ProjectID != "" {
			continue
		}
		out = append(out, e)
	}

	switch q.Get("sortBy") {
	case "modified":
		sort.Slice(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	case "title":
		sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	}

	offset := queryInt(q, "offset", 0)
	limit := queryInt(q, "limit", 0)
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"total":   total,
	})
}

func queryInt(q map[string][]string, key string, def int) int {
	v := q[key]
	if len(v) == 0 || v[0] == "" {
		return def
	}
	n, err := strconv.Atoi(v[0])
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (h *handler) listSections(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	row, err := h.deps.Entries.Recall(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": entries.ParseSections(row.Body)})
}

func (h *handler) getSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, err := h.deps.Entries.Recall(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	sec, ok := entries.ExtractSection(row.Body, vars["title"])
	if !ok {
		writeError(w, apierr.NotFound("httpapi: no section named "+vars["title"]))
		return
	}

	body := sec.Body
	if r.URL.Query().Get("includeSubsections") == "true" && sec.Level == 2 {
		body = appendSubsections(row.Body, sec, body)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"title": sec.Title,
		"level": sec.Level,
		"body":  body,
	})
}

// appendSubsections splices every h3 section immediately following
// parent (up to the next h2-or-higher heading) onto body, since
// ParseSections treats every heading as a hard boundary and would
// otherwise drop nested subsections entirely.
func appendSubsections(fullBody string, parent entries.Section, body string) string {
	all := entries.ParseSections(fullBody)
	var b strings.Builder
	b.WriteString(body)
	for _, s := range all {
		if s.StartLine <= parent.StartLine {
			continue
		}
		if s.Level <= 2 {
			break
		}
		b.WriteString("\n\n### ")
		b.WriteString(s.Title)
		b.WriteString("\n\n")
		b.WriteString(s.Body)
	}
	return b.String()
}

func (h *handler) backlinks(w http.ResponseWriter, r *http.Request) {
	h.linkQuery(w, r, notebook.ListFilters{LinkTo: mux.Vars(r)["id"]})
}

func (h *handler) outlinks(w http.ResponseWriter, r *http.Request) {
	h.linkQuery(w, r, notebook.ListFilters{LinkedBy: mux.Vars(r)["id"]})
}

func (h *handler) related(w http.ResponseWriter, r *http.Request) {
	h.linkQuery(w, r, notebook.ListFilters{Related: mux.Vars(r)["id"]})
}

func (h *handler) linkQuery(w http.ResponseWriter, r *http.Request, filters notebook.ListFilters) {
	filters.Limit = queryInt(r.URL.Query(), "limit", 0)
	rows, err := h.deps.Entries.List(filters)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]types.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToEntry(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *handler) verifyEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.deps.Entries.Verify(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}
