// Package gitutil resolves a task's working directory from its
// worktree/git_remote/git_branch/workdir fields, adapted from the
// teacher's internal/git/git.go branch-naming helper. Spec.md defines
// these fields but never says how they interact; the resolution order
// implemented here is documented as the supplemented decision in
// SPEC_FULL.md §10.3: worktree wins outright, then a
// git_remote+git_branch match against the conventional worktree
// layout, then workdir, then nil.
package gitutil

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var slugUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// BranchName slugs an arbitrary string into a filesystem/branch-safe
// form, grounded on the teacher's git.go BranchName helper.
func BranchName(s string) string {
	s = strings.TrimSpace(s)
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "task"
	}
	return strings.ToLower(s)
}

// repoHash derives a short, stable directory-safe hash for a git
// remote URL, used by the worktree convention path.
func repoHash(remote string) string {
	sum := sha256.Sum256([]byte(remote))
	return fmt.Sprintf("%x", sum[:8])
}

// ResolveWorktree returns the absolute directory implied by the
// worktree/git_remote/git_branch/workdir combination on a task, or
// "" if nothing resolves to an existing directory.
func ResolveWorktree(worktree, gitRemote, gitBranch, workdir, home string) string {
	if worktree != "" {
		if abs := existingAbs(worktree, home); abs != "" {
			return abs
		}
	}

	if gitRemote != "" && gitBranch != "" {
		conventional := filepath.Join(home, ".brain", "worktrees", repoHash(gitRemote), BranchName(gitBranch))
		if isWorktreeDir(conventional) {
			return conventional
		}
	}

	if workdir != "" {
		if abs := existingAbs(workdir, home); abs != "" {
			return abs
		}
	}

	return ""
}

func existingAbs(path, home string) string {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(home, abs)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return ""
	}
	return abs
}

// isWorktreeDir reports whether dir looks like a valid git worktree:
// a directory whose .git entry is a *file* (not a directory) pointing
// at an admin dir under a main repo's worktrees/ directory — the
// standard layout `git worktree add` produces.
func isWorktreeDir(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	gitPath := filepath.Join(dir, ".git")
	gitInfo, err := os.Stat(gitPath)
	if err != nil || gitInfo.IsDir() {
		return false
	}
	data, err := os.ReadFile(gitPath)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "worktrees"+string(filepath.Separator))
}
