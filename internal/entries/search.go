package entries

import (
	"fmt"

	"github.com/brainforge/braind/internal/notebook"
)

// Search delegates to the configured adapter's full-text search.
func (s *Service) Search(query string, filters notebook.ListFilters) ([]notebook.Row, error) {
	rows, err := s.adapter.Search(query, filters)
	if err != nil {
		return nil, translateAdapterErr(err)
	}
	return rows, nil
}

// InjectRequest names the entries to splice into context, in order.
type InjectRequest struct {
	Refs        []string
	SectionOnly string // if set, extract only this section from each entry
}

// InjectResult is one resolved, formatted entry ready for assembly
// into an agent's context window.
type InjectResult struct {
	Ref      string
	Resolved bool
	Title    string
	Link     string
	Content  string
}

// Inject resolves each ref to its body (optionally narrowed to one
// section) and records an access for each hit, continuing past
// unresolved refs rather than failing the whole batch.
func (s *Service) Inject(req InjectRequest) []InjectResult {
	out := make([]InjectResult, 0, len(req.Refs))
	for _, ref := range req.Refs {
		row, err := s.adapter.GetByPathOrID(ref)
		if err != nil || row == nil {
			out = append(out, InjectResult{Ref: ref, Resolved: false})
			continue
		}

		content := row.Body
		if req.SectionOnly != "" {
			if sec, ok := ExtractSection(row.Body, req.SectionOnly); ok {
				content = sec.Body
			} else {
				content = ""
			}
		}

		if s.meta != nil {
			_ = s.meta.RecordAccess(row.Path)
		}

		out = append(out, InjectResult{
			Ref:      ref,
			Resolved: true,
			Title:    row.Title,
			Link:     canonicalLink(filenameID(row.Path), row.Title),
			Content:  fmt.Sprintf("## %s\n\n%s", row.Title, content),
		})
	}
	return out
}
