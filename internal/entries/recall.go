package entries

import (
	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/notebook"
)

// Recall resolves ref (an id or a path, via the adapter's
// GetByPathOrID) to a single entry, recording an access in the
// Metadata Store. Titles are not matched, so Recall never reports an
// ambiguous match or suggestions; an unmatched ref is NotFound.
func (s *Service) Recall(ref string) (*notebook.Row, error) {
	row, err := s.adapter.GetByPathOrID(ref)
	if err != nil {
		return nil, translateAdapterErr(err)
	}
	if row == nil {
		return nil, apierr.NotFound("entries: no entry matches " + ref)
	}

	if s.meta != nil {
		if err := s.meta.RecordAccess(row.Path); err != nil {
			return nil, apierr.Internal("entries: record access", err)
		}
	}
	return row, nil
}

// translateAdapterErr passes already-typed apierr.Errors through
// unchanged (e.g. BackendUnavailable from a shelled-out backend that's
// absent) and wraps anything else as internal.
func translateAdapterErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*apierr.Error); ok {
		return err
	}
	return apierr.Internal("entries: adapter lookup failed", err)
}
