package entries

import (
	"time"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/notebook"
)

// StaleAfter is how long an entry can go unverified before
// listStale surfaces it (spec.md §4.2).
const StaleAfter = 30 * 24 * time.Hour

// Stats summarizes the notebook: the total entry count, the count per
// type, and the orphan and stale counts.
type Stats struct {
	TotalEntries int
	ByType       map[string]int
	OrphanCount  int
	StaleCount   int
}

// List returns every entry matching filters, the general-purpose read
// path GET /entries and the task/feature projections build on.
func (s *Service) List(filters notebook.ListFilters) ([]notebook.Row, error) {
	rows, err := s.adapter.ListByFilters(filters)
	if err != nil {
		return nil, translateAdapterErr(err)
	}
	return rows, nil
}

// GetStats counts entries by type and cross-references the metadata
// store for orphan/stale totals.
func (s *Service) GetStats() (*Stats, error) {
	rows, err := s.adapter.ListByFilters(notebook.ListFilters{})
	if err != nil {
		return nil, translateAdapterErr(err)
	}

	stats := &Stats{ByType: make(map[string]int)}
	for _, row := range rows {
		stats.TotalEntries++
		if t, ok := row.Metadata["type"].(string); ok {
			stats.ByType[t]++
		}
	}

	orphans, err := s.ListOrphans()
	if err != nil {
		return nil, err
	}
	stats.OrphanCount = len(orphans)

	stale, err := s.ListStale(StaleAfter, 0)
	if err != nil {
		return nil, err
	}
	stats.StaleCount = len(stale)

	return stats, nil
}

// ListOrphans returns entries with no incoming or outgoing links,
// per the adapter's Orphan filter.
func (s *Service) ListOrphans() ([]notebook.Row, error) {
	rows, err := s.adapter.ListByFilters(notebook.ListFilters{Orphan: true})
	if err != nil {
		return nil, translateAdapterErr(err)
	}
	return rows, nil
}

// StaleEntry pairs a metadata row with the adapter row for display.
type StaleEntry struct {
	Row          notebook.Row
	LastVerified *time.Time
	AccessCount  int64
}

// ListStale returns entries unverified for longer than olderThan,
// oldest first, optionally capped at limit (0 means unconstrained).
func (s *Service) ListStale(olderThan time.Duration, limit int) ([]StaleEntry, error) {
	if s.meta == nil {
		return nil, apierr.BackendUnavailable("entries: metadata store not configured")
	}
	metaRows, err := s.meta.Stale(olderThan, limit)
	if err != nil {
		return nil, apierr.Internal("entries: list stale", err)
	}

	out := make([]StaleEntry, 0, len(metaRows))
	for _, mr := range metaRows {
		row, err := s.adapter.GetByPathOrID(mr.Path)
		if err != nil || row == nil {
			continue
		}
		out = append(out, StaleEntry{Row: *row, LastVerified: mr.LastVerified, AccessCount: mr.AccessCount})
	}
	return out, nil
}
