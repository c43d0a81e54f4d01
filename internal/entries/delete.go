package entries

import (
	"os"

	"github.com/brainforge/braind/internal/apierr"
)

// Delete resolves ref, removes the backing file, and deletes the
// metadata row. Deletion of the file and of the metadata row are not
// transactional (spec.md §7 tolerates the file-first outcome). A
// metadata row left behind by a failed row delete stays in the store;
// ListStale skips rows whose entry no longer exists.
func (s *Service) Delete(ref string) error {
	row, err := s.adapter.GetByPathOrID(ref)
	if err != nil {
		return translateAdapterErr(err)
	}
	if row == nil {
		return apierr.NotFound("entries: no entry matches " + ref)
	}

	unlock := s.lockFor(row.Path)
	defer unlock()

	if err := os.Remove(row.Path); err != nil {
		if os.IsNotExist(err) {
			return apierr.NotFound("entries: entry file already gone: " + row.Path)
		}
		return apierr.IO("entries: delete entry file", err)
	}

	if s.meta != nil {
		if err := s.meta.Delete(row.Path); err != nil {
			return apierr.Internal("entries: delete metadata row", err)
		}
	}
	return nil
}

// Verify resolves ref and bumps its metadata row's last_verified
// timestamp without touching the file.
func (s *Service) Verify(ref string) error {
	row, err := s.adapter.GetByPathOrID(ref)
	if err != nil {
		return translateAdapterErr(err)
	}
	if row == nil {
		return apierr.NotFound("entries: no entry matches " + ref)
	}
	if s.meta == nil {
		return nil
	}
	if err := s.meta.Verify(row.Path); err != nil {
		return apierr.Internal("entries: verify", err)
	}
	return nil
}

// GenerateLink resolves ref and returns its canonical markdown link.
func (s *Service) GenerateLink(ref string) (string, error) {
	row, err := s.adapter.GetByPathOrID(ref)
	if err != nil {
		return "", translateAdapterErr(err)
	}
	if row == nil {
		return "", apierr.NotFound("entries: no entry matches " + ref)
	}
	return canonicalLink(filenameID(row.Path), row.Title), nil
}
