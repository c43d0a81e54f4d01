package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/entries"
	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/types"
)

func registerSearchRoutes(api *mux.Router, h *handler) {
	api.HandleFunc("/search", h.search).Methods(http.MethodPost)
	api.HandleFunc("/inject", h.inject).Methods(http.MethodPost)
	api.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	api.HandleFunc("/orphans", h.orphans).Methods(http.MethodGet)
	api.HandleFunc("/stale", h.stale).Methods(http.MethodGet)
	api.HandleFunc("/link", h.link).Methods(http.MethodPost)
}

type searchRequest struct {
	Query string `json:"query"`
	Type  string `json:"type"`
	Tag   string `json:"tag"`
	Limit int    `json:"limit"`
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	rows, err := h.deps.Entries.Search(req.Query, notebook.ListFilters{
		Type:  req.Type,
		Tag:   req.Tag,
		Limit: req.Limit,
	})
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

type injectRequest struct {
	Refs        []string `json:"refs"`
	SectionOnly string   `json:"section_only"`
}

func (h *handler) inject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	results := h.deps.Entries.Inject(entries.InjectRequest{Refs: req.Refs, SectionOnly: req.SectionOnly})
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Entries.GetStats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) orphans(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.Entries.ListOrphans()
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

func (h *handler) stale(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := queryInt(q, "days", int(entries.StaleAfter/(24*time.Hour)))
	limit := queryInt(q, "limit", 0)

	stale, err := h.deps.Entries.ListStale(time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(stale))
	for _, s := range stale {
		out = append(out, map[string]any{
			"entry":         rowToEntry(s.Row),
			"last_verified": s.LastVerified,
			"access_count":  s.AccessCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"stale": out})
}

type linkRequest struct {
	Ref string `json:"ref"`
}

func (h *handler) link(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	link, err := h.deps.Entries.GenerateLink(req.Ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"link": link})
}
