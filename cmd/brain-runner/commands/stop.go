package commands

import (
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brainforge/braind/internal/runnerstate"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal a running brain-runner instance for --project to shut down gracefully",
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
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
	if pid == 0 || !runnerstate.ProcessAlive(pid) {
		return operatorError("no live brain-runner instance found for project %q", proj)
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return operatorError("signaling pid %d: %w", pid, err)
	}
	cmd.Printf("sent SIGTERM to pid %d (project %s)\n", pid, proj)
	return nil
}
