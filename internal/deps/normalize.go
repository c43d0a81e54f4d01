package deps

import "strings"

// normalizeRef strips a ".md" suffix and a "projects/<p>/task/" path
// prefix, and splits a "project:ref" hint out of the remainder, per
// spec.md §4.3 step 1. Grounded on the teacher's ID-vs-path resolution
// style in internal/memory/repo.go.
func normalizeRef(ref string) (projectHint, local string) {
	ref = strings.TrimSuffix(ref, ".md")

	if idx := strings.Index(ref, "/task/"); idx != -1 {
		prefix := ref[:idx]
		if strings.HasPrefix(prefix, "projects/") {
			ref = ref[idx+len("/task/"):]
		}
	}

	if idx := strings.Index(ref, ":"); idx != -1 && !strings.Contains(ref[:idx], "/") {
		return ref[:idx], ref[idx+1:]
	}
	return "", ref
}

// filenameStem returns the base name of a path with its extension and
// any slug suffix after the 8-char id stripped, e.g.
// "abc12345-do-the-thing.md" -> "abc12345".
func filenameStem(path string) string {
	base := path
	if idx := strings.LastIndex(base, "/"); idx != -1 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".md")
	if len(base) > 8 && base[8] == '-' {
		return base[:8]
	}
	return base
}
