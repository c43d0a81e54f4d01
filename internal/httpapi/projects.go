package httpapi

import (
	"sort"

	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/types"
)

// projectTasks returns every task entry belonging to projectID. The
// adapter's ListFilters has no project dimension (spec.md's notebook
// backends are project-agnostic by design), so the filter happens
// here, client-side, against each row's project_id frontmatter field.
func (h *handler) projectTasks(projectID string) ([]types.Entry, error) {
	rows, err := h.deps.Entries.List(notebook.ListFilters{Type: string(types.TypeTask)})
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, 0, len(rows))
	for _, row := range rows {
		if metaString(row.Metadata, "project_id") != projectID {
			continue
		}
		out = append(out, rowToEntry(row))
	}
	return out, nil
}

// listProjectIDs returns every distinct project_id carrying at least
// one task entry, sorted, the set GET /tasks and GET /features report.
func (h *handler) listProjectIDs() ([]string, error) {
	rows, err := h.deps.Entries.List(notebook.ListFilters{Type: string(types.TypeTask)})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, row := range rows {
		if p := metaString(row.Metadata, "project_id"); p != "" {
			seen[p] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
