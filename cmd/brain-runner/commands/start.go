package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brainforge/braind/internal/scheduler"
	"github.com/brainforge/braind/internal/supervisor"
)

var startAll bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the scheduler loop until interrupted, spawning agent processes for claimed tasks",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startAll, "all", false, "poll every project the server knows about instead of just --project")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	state, err := newStateManager(profile)
	if err != nil {
		return err
	}
	api := newAPIClient(profile)
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	id := runnerID()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	launcher := supervisor.NewExecLauncher()

	if startAll {
		log.Info("starting scheduler loop for every project", zap.String("runner_id", id))
		if err := scheduler.RunAll(ctx, api, api, launcher, state, *profile, id, home, log, false); err != nil {
			return operatorError("scheduler: %w", err)
		}
		return nil
	}

	proj, err := activeProject(profile)
	if err != nil {
		return err
	}
	log.Info("starting scheduler loop", zap.String("project", proj), zap.String("runner_id", id))
	if err := scheduler.RunAll(ctx, staticLister{project: proj}, api, launcher, state, *profile, id, home, log, false); err != nil {
		return operatorError("scheduler: %w", err)
	}
	return nil
}
