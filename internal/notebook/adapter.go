package notebook

import "time"

// Row is what the adapter returns for a matched entry: everything the
// Entry Service and HTTP layer need without re-parsing the file.
type Row struct {
	Path     string
	Title    string
	Tags     []string
	Metadata map[string]any
	Lead     string
	Body     string
	Created  time.Time
	Modified time.Time
}

// ListFilters narrows a listByFilters call. Zero values mean
// "unconstrained" for that dimension.
type ListFilters struct {
	Type     string
	Tag      string
	Match    string
	LinkTo   string
	LinkedBy string
	Related  string
	Orphan   bool
	Limit    int
}

// Adapter is the read-only view over the entry store (spec.md §4.1).
// Two backends implement it with an identical contract; absence of the
// rich backend degrades search-dependent operations to
// apierr.BackendUnavailable rather than a panic.
type Adapter interface {
	ListByFilters(filters ListFilters) ([]Row, error)
	GetByPathOrID(ref string) (*Row, error)
	// Search performs a full-text match against entry bodies/titles.
	// RichBackend implements a real search; DirectFileBackend falls
	// back to a naive substring scan across Body+Title.
	Search(query string, filters ListFilters) ([]Row, error)
	// Name identifies the backend for health reporting and errors.
	Name() string
}
