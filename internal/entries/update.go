package entries

import (
	"os"
	"time"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/types"
)

// UpdateRequest carries the fields to change; nil pointers/empty
// slices leave the corresponding value untouched except where noted.
// Append and Note are additive: Append joins a string to the existing
// body under a "## Update" heading rather than replacing it, and Note
// is shorthand for the same append under a timestamped heading.
type UpdateRequest struct {
	Ref      string
	Title    *string
	Body     *string
	Append   *string
	Note     *string
	Status   *types.EntryStatus
	Priority *types.Priority
	Tags     *[]string

	// Task-only fields.
	DependsOn        *[]string
	ParentID         *string
	FeatureID        *string
	FeaturePriority  *types.Priority
	FeatureDependsOn *[]string
}

// Update resolves ref, applies the requested field changes, bumps
// Modified, re-renders frontmatter, and rewrites the file under the
// same per-path lock used by Create.
func (s *Service) Update(req UpdateRequest) (*notebook.Row, error) {
	row, err := s.adapter.GetByPathOrID(req.Ref)
	if err != nil {
		return nil, translateAdapterErr(err)
	}
	if row == nil {
		return nil, apierr.NotFound("entries: no entry matches " + req.Ref)
	}

	unlock := s.lockFor(row.Path)
	defer unlock()

	raw, err := os.ReadFile(row.Path)
	if err != nil {
		return nil, apierr.IO("entries: read entry for update", err)
	}
	doc, err := notebook.ParseFrontmatter(raw)
	if err != nil {
		return nil, apierr.Internal("entries: parse frontmatter for update", err)
	}

	if req.Title != nil {
		title := notebook.SanitizeTitle(*req.Title)
		if title == "" {
			return nil, apierr.Validation("title must not be empty", apierr.Detail{Field: "title"})
		}
		doc.Frontmatter["title"] = title
	}
	if req.Body != nil {
		doc.Body = notebook.SanitizeBody(*req.Body)
	}
	if req.Append != nil {
		doc.Body = doc.Body + "\n\n## Update\n\n" + notebook.SanitizeBody(*req.Append)
	}
	if req.Note != nil {
		heading := "## Note " + time.Now().UTC().Format(time.RFC3339)
		doc.Body = doc.Body + "\n\n" + heading + "\n\n" + notebook.SanitizeBody(*req.Note)
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, apierr.Validation("invalid status", apierr.Detail{Field: "status", Message: string(*req.Status)})
		}
		doc.Frontmatter["status"] = string(*req.Status)
	}
	if req.Priority != nil {
		doc.Frontmatter["priority"] = string(*req.Priority)
	}
	if req.Tags != nil {
		doc.Frontmatter["tags"] = notebook.SanitizeTags(*req.Tags)
	}
	if req.DependsOn != nil {
		doc.Frontmatter["depends_on"] = *req.DependsOn
	}
	if req.ParentID != nil {
		doc.Frontmatter["parent_id"] = *req.ParentID
	}
	if req.FeatureID != nil {
		doc.Frontmatter["feature_id"] = *req.FeatureID
	}
	if req.FeaturePriority != nil {
		doc.Frontmatter["feature_priority"] = string(*req.FeaturePriority)
	}
	if req.FeatureDependsOn != nil {
		doc.Frontmatter["feature_depends_on"] = *req.FeatureDependsOn
	}
	doc.Frontmatter["modified"] = time.Now().UTC().Format(time.RFC3339)

	data, err := notebook.RenderFrontmatter(doc)
	if err != nil {
		return nil, apierr.Internal("entries: render frontmatter for update", err)
	}
	if err := os.WriteFile(row.Path, data, 0o644); err != nil {
		return nil, apierr.IO("entries: write updated entry", err)
	}

	updated, err := s.adapter.GetByPathOrID(row.Path)
	if err != nil {
		return nil, translateAdapterErr(err)
	}
	return updated, nil
}
