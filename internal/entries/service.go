// Package entries implements the Entry Service: CRUD over entries,
// frontmatter sanitization, title normalization, and content assembly
// (spec.md §4.2). It is the sole writer of entries; all writes route
// through the Notebook Adapter and touch the Metadata Store on
// access/create/delete.
package entries

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/notebook"
	"github.com/brainforge/braind/internal/notebook/metastore"
	"github.com/brainforge/braind/internal/types"
)

// Service is the Entry Service. Per-path write serialization uses a
// sync.Map of *sync.Mutex keyed by resolved path — grounded on the
// teacher's single-writer discipline in JSONStore (one mutex for the
// whole store there; we shard per-path since spec.md §5 explicitly
// allows cross-path parallelism).
type Service struct {
	root    string
	adapter notebook.Adapter
	meta    *metastore.Store

	pathLocks sync.Map // path -> *sync.Mutex
}

// New returns an Entry Service rooted at notebookRoot, writing through
// adapter and touching meta on access/create/delete.
func New(notebookRoot string, adapter notebook.Adapter, meta *metastore.Store) *Service {
	return &Service{root: notebookRoot, adapter: adapter, meta: meta}
}

// BackendName identifies the configured notebook adapter, for health
// reporting.
func (s *Service) BackendName() string { return s.adapter.Name() }

func (s *Service) lockFor(path string) func() {
	lockAny, _ := s.pathLocks.LoadOrStore(path, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

// CreateRequest is the input to Create.
type CreateRequest struct {
	Type            types.EntryType
	Title           string
	Body            string
	Tags            []string
	ProjectID       string
	Priority        *types.Priority
	DependsOn       []string
	ParentID        string
	FeatureID       string
	FeaturePriority *types.Priority
	FeatureDependsOn []string
	Workdir         string
	Worktree        string
	GitRemote       string
	GitBranch       string
	UserOriginalRequest string
	RelatedEntries  []string
}

// CreateResult is what Create returns on success.
type CreateResult struct {
	ID     string
	Path   string
	Title  string
	Type   types.EntryType
	Status types.EntryStatus
	Link   string
}

// Create builds a directory under global/<type>/ or
// projects/<projectDir>/<type>/, composes frontmatter, optionally
// resolves related-entry refs into a "## Related Brain Entries"
// appendix (unresolved refs commented out), writes the file, and
// initializes a metadata row. A partial relatedEntries resolution
// still succeeds; only write errors fail the call.
func (s *Service) Create(req CreateRequest) (*CreateResult, error) {
	if !req.Type.IsValid() {
		return nil, apierr.Validation("invalid entry type", apierr.Detail{Field: "type", Message: string(req.Type)})
	}
	title := notebook.SanitizeTitle(req.Title)
	if title == "" {
		return nil, apierr.Validation("title is required", apierr.Detail{Field: "title", Message: "must not be empty"})
	}

	id := newID()
	slug := slugify(title)
	dir := filepath.Join(s.root, entryDir(req.ProjectID), string(req.Type))
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.md", id, slug))

	status := req.Type.DefaultStatus()
	now := time.Now().UTC()

	entry := types.Entry{
		ID:                  id,
		Path:                path,
		Type:                req.Type,
		Status:              status,
		Priority:            req.Priority,
		Title:               title,
		Tags:                notebook.SanitizeTags(req.Tags),
		ProjectID:           req.ProjectID,
		Body:                notebook.SanitizeBody(req.Body),
		Created:             now,
		Modified:            now,
		DependsOn:           req.DependsOn,
		ParentID:            req.ParentID,
		FeatureID:           req.FeatureID,
		FeaturePriority:     req.FeaturePriority,
		FeatureDependsOn:    req.FeatureDependsOn,
		Workdir:             req.Workdir,
		Worktree:            req.Worktree,
		GitRemote:           req.GitRemote,
		GitBranch:           req.GitBranch,
		UserOriginalRequest: req.UserOriginalRequest,
	}
	if err := entry.Validate(); err != nil {
		return nil, apierr.Validation(err.Error())
	}

	body := entry.Body
	if len(req.RelatedEntries) > 0 {
		body = body + "\n\n" + s.renderRelatedAppendix(req.RelatedEntries)
	}

	unlock := s.lockFor(path)
	defer unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apierr.IO("entries: create directory", err)
	}

	doc := s.toDocument(entry, body)
	data, err := notebook.RenderFrontmatter(doc)
	if err != nil {
		return nil, apierr.Internal("entries: render frontmatter", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, apierr.IO("entries: write entry file", err)
	}

	if s.meta != nil {
		if err := s.meta.Init(path, req.ProjectID); err != nil {
			return nil, apierr.Internal("entries: init metadata row", err)
		}
	}

	return &CreateResult{
		ID:     id,
		Path:   path,
		Title:  title,
		Type:   req.Type,
		Status: status,
		Link:   canonicalLink(id, title),
	}, nil
}

// renderRelatedAppendix builds the "## Related Brain Entries" section,
// commenting out refs that didn't resolve so human review is cheap.
func (s *Service) renderRelatedAppendix(refs []string) string {
	var b strings.Builder
	b.WriteString("## Related Brain Entries\n\n")
	for _, ref := range refs {
		row, err := s.adapter.GetByPathOrID(ref)
		if err != nil || row == nil {
			b.WriteString(fmt.Sprintf("<!-- unresolved: %s -->\n", notebook.EscapeRef(ref)))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s\n", canonicalLink(filenameID(row.Path), row.Title)))
	}
	return b.String()
}

func (s *Service) toDocument(e types.Entry, body string) *notebook.Document {
	fm := map[string]any{
		"id":     e.ID,
		"type":   string(e.Type),
		"status": string(e.Status),
		"title":  e.Title,
	}
	if len(e.Tags) > 0 {
		fm["tags"] = e.Tags
	}
	if e.ProjectID != "" {
		fm["project_id"] = e.ProjectID
	}
	if e.Priority != nil {
		fm["priority"] = string(*e.Priority)
	}
	if e.Type == types.TypeTask {
		if len(e.DependsOn) > 0 {
			fm["depends_on"] = e.DependsOn
		}
		if e.ParentID != "" {
			fm["parent_id"] = e.ParentID
		}
		if e.FeatureID != "" {
			fm["feature_id"] = e.FeatureID
		}
		if e.FeaturePriority != nil {
			fm["feature_priority"] = string(*e.FeaturePriority)
		}
		if len(e.FeatureDependsOn) > 0 {
			fm["feature_depends_on"] = e.FeatureDependsOn
		}
		if e.Workdir != "" {
			fm["workdir"] = e.Workdir
		}
		if e.Worktree != "" {
			fm["worktree"] = e.Worktree
		}
		if e.GitRemote != "" {
			fm["git_remote"] = e.GitRemote
		}
		if e.GitBranch != "" {
			fm["git_branch"] = e.GitBranch
		}
		if e.UserOriginalRequest != "" {
			fm["user_original_request"] = e.UserOriginalRequest
		}
	}
	fm["created"] = e.Created.Format(time.RFC3339)
	fm["modified"] = e.Modified.Format(time.RFC3339)

	return &notebook.Document{Frontmatter: fm, Body: body}
}

func entryDir(projectID string) string {
	if projectID == "" {
		return "global"
	}
	return filepath.Join("projects", projectID)
}

func newID() string {
	u := uuid.New().String()
	return strings.ToLower(strings.ReplaceAll(u, "-", ""))[:8]
}

func filenameID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".md")
	if idx := strings.Index(base, "-"); idx == 8 {
		return base[:8]
	}
	return base
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func canonicalLink(id, title string) string {
	return fmt.Sprintf("[%s](%s)", title, id)
}
