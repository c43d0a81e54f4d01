package commands

import (
	"encoding/json"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/brainforge/braind/internal/runnerstate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a brain-runner instance is live for --project and what it's running",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Project string             `json:"project"`
	Live    bool               `json:"live"`
	PID     int                `json:"pid,omitempty"`
	Running []runningTaskView  `json:"running,omitempty"`
}

type runningTaskView struct {
	TaskID    string `json:"task_id"`
	AgentID   string `json:"agent_id"`
	PID       int    `json:"pid"`
	Status    string `json:"status"`
	StartedAgo string `json:"started_ago"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	proj, err := activeProject(profile)
	if err != nil {
		return err
	}
	state, err := newStateManager(profile)
	if err != nil {
		return err
	}

	pid := state.ReadPID(proj)
	live := pid != 0 && runnerstate.ProcessAlive(pid)

	report := statusReport{Project: proj, Live: live, PID: pid}

	running, err := state.LoadRunning(proj)
	if err == nil {
		for _, t := range running {
			report.Running = append(report.Running, runningTaskView{
				TaskID:     t.TaskID,
				AgentID:    t.AgentID,
				PID:        t.PID,
				Status:     string(t.Status),
				StartedAgo: humanize.Time(t.StartedAt),
			})
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
