package types

import "time"

// RunProcessStatus is the closed enum of states a spawned agent process
// can be in from the runner's point of view.
type RunProcessStatus string

const (
	ProcessStarting RunProcessStatus = "starting"
	ProcessRunning  RunProcessStatus = "running"
	ProcessExited   RunProcessStatus = "exited"
	ProcessKilled   RunProcessStatus = "killed"
	ProcessFailed   RunProcessStatus = "failed"
)

// RunningTask is one entry in the runner's persisted snapshot of the
// tasks it currently has a process spawned for (spec.md §4.8, the
// State Manager).
type RunningTask struct {
	TaskID    string           `json:"task_id"`
	AgentID   string           `json:"agent_id"`
	PID       int              `json:"pid"`
	Status    RunProcessStatus `json:"status"`
	Workdir   string           `json:"workdir"`
	LogPath   string           `json:"log_path,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	ExitedAt  *time.Time       `json:"exited_at,omitempty"`
	ExitCode  *int             `json:"exit_code,omitempty"`
}

// Running reports whether the process is believed to still be alive.
func (r *RunningTask) Running() bool {
	return r.Status == ProcessStarting || r.Status == ProcessRunning
}

// RunnerState is the full on-disk snapshot persisted by the State
// Manager between scheduler loop ticks, so a restart can reconcile
// rather than re-spawn everything from scratch.
type RunnerState struct {
	ProjectID string                  `json:"project_id"`
	Tasks     map[string]*RunningTask `json:"tasks"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// NewRunnerState returns an empty, ready-to-use state for a project.
func NewRunnerState(projectID string) *RunnerState {
	return &RunnerState{
		ProjectID: projectID,
		Tasks:     make(map[string]*RunningTask),
	}
}

// EnsureMaps re-initializes nil maps after a state load, mirroring the
// teacher's defensive load-time reinitialization for JSON-decoded
// structs that may have been persisted before a field existed.
func (s *RunnerState) EnsureMaps() {
	if s.Tasks == nil {
		s.Tasks = make(map[string]*RunningTask)
	}
}
