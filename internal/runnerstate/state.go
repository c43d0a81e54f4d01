// Package runnerstate is the State Manager: persists a runner's PID,
// in-flight tasks, and lifetime stats per project to disk, atomically,
// and tolerates partial/corrupt reads on restart (spec.md §4.8).
// Grounded on the teacher's JSONStore save/load shape
// (internal/persistence/store.go), generalized to atomic rename, and
// its PID-file discipline (internal/instance/manager.go's
// PIDFileData/CheckExistingInstance), ported from the Windows-only
// golang.org/x/sys/windows liveness check to POSIX os.FindProcess +
// Signal(syscall.Signal(0)).
package runnerstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brainforge/braind/internal/types"
)

// Manager persists and restores per-project runner state under dir.
type Manager struct {
	dir string
}

// New returns a Manager rooted at the given state directory.
func New(dir string) *Manager {
	return &Manager{dir: dir}
}

func (m *Manager) statePath(project string) string {
	return filepath.Join(m.dir, fmt.Sprintf("runner-%s.json", sanitizeProject(project)))
}
func (m *Manager) pidPath(project string) string {
	return filepath.Join(m.dir, fmt.Sprintf("runner-%s.pid", sanitizeProject(project)))
}
func (m *Manager) runningPath(project string) string {
	return filepath.Join(m.dir, fmt.Sprintf("running-%s.json", sanitizeProject(project)))
}

// writeAtomic writes data to path via a temp file in the same
// directory followed by os.Rename, so a crash mid-write never leaves
// a truncated file at the real path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runnerstate: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("runnerstate: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("runnerstate: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("runnerstate: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("runnerstate: rename temp file: %w", err)
	}
	return nil
}

// SaveState persists the full runner state for project.
func (m *Manager) SaveState(project string, state *types.RunnerState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("runnerstate: marshal state: %w", err)
	}
	return writeAtomic(m.statePath(project), data)
}

// LoadState reads the full runner state for project. A missing or
// corrupt file is treated as "absent" (nil, nil), not an error — the
// caller starts from NewRunnerState.
func (m *Manager) LoadState(project string) (*types.RunnerState, error) {
	data, err := os.ReadFile(m.statePath(project))
	if err != nil {
		return nil, nil
	}
	var state types.RunnerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	state.EnsureMaps()
	return &state, nil
}

// SaveRunning persists the running-tasks snapshot used for crash
// recovery, separately from the full state so a corrupt full-state
// write doesn't lose the in-flight task list.
func (m *Manager) SaveRunning(project string, tasks []types.RunningTask) error {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("runnerstate: marshal running tasks: %w", err)
	}
	return writeAtomic(m.runningPath(project), data)
}

// LoadRunning reads the running-tasks snapshot. Missing/corrupt -> nil, nil.
func (m *Manager) LoadRunning(project string) ([]types.RunningTask, error) {
	data, err := os.ReadFile(m.runningPath(project))
	if err != nil {
		return nil, nil
	}
	var tasks []types.RunningTask
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, nil
	}
	return tasks, nil
}

// pidFile is the on-disk shape of runner-<p>.pid.
type pidFile struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Hostname  string    `json:"hostname"`
}

// WritePID records the current process as the live runner for project.
func (m *Manager) WritePID(project string, pid int) error {
	hostname, _ := os.Hostname()
	data, err := json.MarshalIndent(pidFile{PID: pid, StartedAt: time.Now().UTC(), Hostname: hostname}, "", "  ")
	if err != nil {
		return fmt.Errorf("runnerstate: marshal pid file: %w", err)
	}
	return writeAtomic(m.pidPath(project), data)
}

// RemovePID deletes the PID file for project, if present.
func (m *Manager) RemovePID(project string) error {
	err := os.Remove(m.pidPath(project))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runnerstate: remove pid file: %w", err)
	}
	return nil
}

// ReadPID reads the recorded PID for project, or 0 if absent/corrupt.
func (m *Manager) ReadPID(project string) int {
	data, err := os.ReadFile(m.pidPath(project))
	if err != nil {
		return 0
	}
	var pf pidFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return 0
	}
	return pf.PID
}

// IsPrevInstanceLive reports whether the runner previously recorded
// for project is still alive, used by crash-recovery on startup.
func (m *Manager) IsPrevInstanceLive(project string) bool {
	pid := m.ReadPID(project)
	if pid == 0 {
		return false
	}
	return ProcessAlive(pid)
}
