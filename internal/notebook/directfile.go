package notebook

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/brainforge/braind/internal/apierr"
)

// DirectFileBackend walks <root>/{global,projects/<p>}/<type>/*.md
// directly, with no external process. It is always available — the
// fallback every install can rely on when no rich indexer binary is
// configured.
//
// No pack library provides a better-than-stdlib directory walker for
// this; filepath.WalkDir is the justified stdlib choice (see
// DESIGN.md).
type DirectFileBackend struct {
	root string
}

// NewDirectFileBackend returns a backend rooted at the given notebook
// directory.
func NewDirectFileBackend(root string) *DirectFileBackend {
	return &DirectFileBackend{root: root}
}

func (b *DirectFileBackend) Name() string { return "direct-file" }

func (b *DirectFileBackend) ListByFilters(filters ListFilters) ([]Row, error) {
	var all []Row
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		row, rerr := b.readRow(path)
		if rerr != nil {
			return nil // corrupt file: skip, don't fail the whole listing
		}
		all = append(all, *row)
		return nil
	})
	if err != nil {
		return nil, apierr.IO("notebook: list by filters", err)
	}

	needsGraph := filters.Orphan || filters.LinkTo != "" || filters.LinkedBy != "" || filters.Related != ""
	var linkedBy map[string][]string // id -> ids of rows that link to it
	if needsGraph {
		linkedBy = buildLinkGraph(all)
	}

	var rows []Row
	for i := range all {
		row := &all[i]
		if !matchesFilters(row.Path, row, filters) {
			continue
		}
		if needsGraph && !matchesGraphFilters(row, linkedBy, filters) {
			continue
		}
		rows = append(rows, *row)
		if filters.Limit > 0 && len(rows) >= filters.Limit {
			break
		}
	}
	return rows, nil
}

// buildLinkGraph maps each row's id to the ids of rows that link to
// it, via frontmatter (depends_on, parent_id) or an in-body canonical
// link "[title](id)".
func buildLinkGraph(all []Row) map[string][]string {
	linkRefs := regexp.MustCompile(`\]\(([0-9a-f]{8})\)`)
	linkedBy := make(map[string][]string)

	for _, row := range all {
		fromID := rowID(row.Path)
		targets := make(map[string]bool)

		for _, field := range []string{"depends_on", "parent_id"} {
			switch v := row.Metadata[field].(type) {
			case string:
				if v != "" {
					targets[v] = true
				}
			case []any:
				for _, item := range v {
					if s, ok := item.(string); ok {
						targets[s] = true
					}
				}
			}
		}
		for _, m := range linkRefs.FindAllStringSubmatch(row.Body, -1) {
			targets[m[1]] = true
		}
		for t := range targets {
			linkedBy[t] = append(linkedBy[t], fromID)
		}
	}
	return linkedBy
}

func rowID(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".md")
	if idx := strings.Index(base, "-"); idx == 8 {
		return base[:8]
	}
	return base
}

func matchesGraphFilters(row *Row, linkedBy map[string][]string, f ListFilters) bool {
	id := rowID(row.Path)

	if f.Orphan {
		outgoing := false
		for _, field := range []string{"depends_on", "parent_id"} {
			if _, ok := row.Metadata[field]; ok {
				outgoing = true
			}
		}
		if outgoing || len(linkedBy[id]) > 0 {
			return false
		}
	}
	if f.LinkedBy != "" {
		found := false
		for _, from := range linkedBy[id] {
			if from == f.LinkedBy {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.LinkTo != "" {
		found := false
		for _, from := range linkedBy[f.LinkTo] {
			if from == id {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Related != "" {
		related := f.Related
		self := false
		for _, from := range linkedBy[related] {
			if from == id {
				self = true
			}
		}
		if !self {
			found := false
			for _, from := range linkedBy[id] {
				if from == related {
					found = true
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (b *DirectFileBackend) GetByPathOrID(ref string) (*Row, error) {
	path, err := b.resolvePath(ref)
	if err != nil {
		return nil, err
	}
	return b.readRow(path)
}

// Search falls back to a naive substring scan across title and body
// when no rich indexer is configured.
func (b *DirectFileBackend) Search(query string, filters ListFilters) ([]Row, error) {
	rows, err := b.ListByFilters(filters)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var hits []Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Title), query) || strings.Contains(strings.ToLower(r.Body), query) {
			hits = append(hits, r)
		}
	}
	return hits, nil
}

func (b *DirectFileBackend) readRow(path string) (*Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierr.IO("notebook: read entry file", err)
	}
	doc, err := ParseFrontmatter(data)
	if err != nil {
		return nil, apierr.Internal("notebook: parse entry", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, apierr.IO("notebook: stat entry file", err)
	}

	row := &Row{
		Path:     path,
		Metadata: doc.Frontmatter,
		Body:     doc.Body,
		Modified: info.ModTime(),
	}
	if title, ok := doc.Frontmatter["title"].(string); ok {
		row.Title = title
	}
	if tags, ok := doc.Frontmatter["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				row.Tags = append(row.Tags, s)
			}
		}
	}
	row.Lead = leadParagraph(doc.Body)
	return row, nil
}

// resolvePath finds the file backing ref, which may be a bare 8-char
// id, a relative path, or an absolute path under root.
func (b *DirectFileBackend) resolvePath(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		if _, err := os.Stat(ref); err == nil {
			return ref, nil
		}
	}
	candidate := filepath.Join(b.root, ref)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	if !strings.HasSuffix(candidate, ".md") {
		if _, err := os.Stat(candidate + ".md"); err == nil {
			return candidate + ".md", nil
		}
	}

	var found string
	_ = filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ref+"-") || base == ref+".md" {
			found = path
		}
		return nil
	})
	if found == "" {
		return "", apierr.NotFound(fmt.Sprintf("notebook: no entry for ref %q", ref))
	}
	return found, nil
}

func matchesFilters(path string, row *Row, f ListFilters) bool {
	if f.Type != "" && !strings.Contains(path, string(filepath.Separator)+f.Type+string(filepath.Separator)) {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range row.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Match != "" && !strings.Contains(strings.ToLower(row.Body), strings.ToLower(f.Match)) {
		return false
	}
	return true
}

func leadParagraph(body string) string {
	for _, para := range strings.Split(body, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
