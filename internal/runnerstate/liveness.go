package runnerstate

import (
	"os"
	"regexp"
	"strings"
	"syscall"
)

// ProcessAlive reports whether pid names a live process, via the POSIX
// idiom of sending signal 0: it performs permission/existence checks
// without actually delivering a signal.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

var runnerStatePattern = regexp.MustCompile(`^runner-(.+)\.json$`)

// FindAllRunnerStates lists the project IDs with a persisted state
// file under dir.
func FindAllRunnerStates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var projects []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := runnerStatePattern.FindStringSubmatch(e.Name()); m != nil {
			projects = append(projects, m[1])
		}
	}
	return projects, nil
}

// CleanupStaleStates removes the full state/pid/running file triplet
// for every project in dir whose recorded PID is no longer live,
// returning the projects it cleaned up.
func CleanupStaleStates(dir string) ([]string, error) {
	projects, err := FindAllRunnerStates(dir)
	if err != nil {
		return nil, err
	}

	m := New(dir)
	var cleaned []string
	for _, project := range projects {
		if m.IsPrevInstanceLive(project) {
			continue
		}
		for _, p := range []string{m.statePath(project), m.pidPath(project), m.runningPath(project)} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return cleaned, err
			}
		}
		cleaned = append(cleaned, project)
	}
	return cleaned, nil
}

// sanitizeProject guards against a project id containing path
// separators reaching filepath.Join from an externally-sourced value
// (spec.md §6 constrains projectId to [A-Za-z0-9_-]+; this is the
// defense-in-depth backstop inside the state manager itself).
func sanitizeProject(project string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, project)
}
