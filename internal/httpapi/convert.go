package httpapi

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/types"
)

// rowToEntry rebuilds a types.Entry from an adapter Row's frontmatter
// metadata, the one conversion point every tasks/features/entries
// handler funnels through so the wire shape stays consistent no
// matter which backend produced the Row.
func rowToEntry(row notebook.Row) types.Entry {
	m := row.Metadata

	e := types.Entry{
		ID:        rowID(row),
		Path:      row.Path,
		Type:      types.EntryType(metaString(m, "type")),
		Status:    types.EntryStatus(metaString(m, "status")),
		Title:     row.Title,
		Tags:      row.Tags,
		ProjectID: metaString(m, "project_id"),
		Body:      row.Body,
		Created:   row.Created,
		Modified:  row.Modified,
	}
	if p := metaString(m, "priority"); p != "" {
		pr := types.Priority(p)
		e.Priority = &pr
	}
	if e.Type == types.TypeTask {
		e.DependsOn = metaStringSlice(m, "depends_on")
		e.ParentID = metaString(m, "parent_id")
		e.FeatureID = metaString(m, "feature_id")
		if fp := metaString(m, "feature_priority"); fp != "" {
			pr := types.Priority(fp)
			e.FeaturePriority = &pr
		}
		e.FeatureDependsOn = metaStringSlice(m, "feature_depends_on")
		e.Workdir = metaString(m, "workdir")
		e.Worktree = metaString(m, "worktree")
		e.GitRemote = metaString(m, "git_remote")
		e.GitBranch = metaString(m, "git_branch")
		e.UserOriginalRequest = metaString(m, "user_original_request")
	}
	return e
}

// rowID recovers the entry's 8-character id from its frontmatter if
// present, falling back to the filename stem (id-slug.md).
func rowID(row notebook.Row) string {
	if id := metaString(row.Metadata, "id"); id != "" {
		return id
	}
	base := strings.TrimSuffix(filepath.Base(row.Path), ".md")
	if idx := strings.Index(base, "-"); idx == 8 {
		return base[:8]
	}
	return base
}

func metaString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func metaStringSlice(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// metaTime parses an RFC3339 timestamp out of frontmatter metadata,
// falling back to the zero time when absent or unparsable.
func metaTime(m map[string]any, key string) time.Time {
	s := metaString(m, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
