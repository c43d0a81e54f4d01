package gitutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchName(t *testing.T) {
	assert.Equal(t, "fix-the-bug", BranchName("Fix the Bug!"))
	assert.Equal(t, "task", BranchName("   "))
	assert.Equal(t, "feature-123", BranchName("feature/123"))
}

func TestResolveWorktreePrefersExplicitWorktree(t *testing.T) {
	home := t.TempDir()
	wt := filepath.Join(home, "wt")
	require.NoError(t, os.MkdirAll(wt, 0o755))

	got := ResolveWorktree(wt, "", "", "", home)
	assert.Equal(t, wt, got)
}

func TestResolveWorktreeFallsBackToWorkdir(t *testing.T) {
	home := t.TempDir()
	wd := filepath.Join(home, "proj")
	require.NoError(t, os.MkdirAll(wd, 0o755))

	got := ResolveWorktree("", "", "", "proj", home)
	assert.Equal(t, wd, got)
}

func TestResolveWorktreeReturnsEmptyWhenNothingExists(t *testing.T) {
	home := t.TempDir()
	got := ResolveWorktree("missing", "", "", "also-missing", home)
	assert.Equal(t, "", got)
}

func TestResolveWorktreeMatchesGitRemoteBranchConvention(t *testing.T) {
	home := t.TempDir()
	remote := "git@github.com:example/repo.git"
	branch := "feature/thing"

	conventional := filepath.Join(home, ".brain", "worktrees", repoHash(remote), BranchName(branch))
	require.NoError(t, os.MkdirAll(conventional, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(conventional, ".git"),
		[]byte("gitdir: /main/repo/.git/worktrees/feature-thing\n"), 0o644))

	got := ResolveWorktree("", remote, branch, "", home)
	assert.Equal(t, conventional, got)
}
