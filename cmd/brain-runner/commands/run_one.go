package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/gitutil"
	"github.com/brainforge/braind/internal/supervisor"
	"github.com/brainforge/braind/internal/types"
)

var runOneCmd = &cobra.Command{
	Use:   "run-one",
	Short: "Claim the highest-priority ready task for --project and run it to completion, then exit",
	RunE:  runRunOne,
}

func init() {
	rootCmd.AddCommand(runOneCmd)
}

// runRunOne implements a single-shot claim/spawn/wait/report cycle
// for scripted or one-off use, with no poll loop around it. Unlike the
// scheduler loop's tick, it does not move the task to in_progress
// before spawning, does not pass a prompt on the agent's stdin, and
// does not check that a workdir was resolved.
func runRunOne(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	proj, err := activeProject(profile)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	api := newAPIClient(profile)
	ctx := context.Background()

	ready, err := api.ListReady(ctx, proj)
	if err != nil {
		return operatorError("listing ready tasks: %w", err)
	}
	if len(ready) == 0 {
		cmd.Println("no ready tasks")
		return nil
	}
	task := ready[0]

	id := runnerID()
	claim, err := api.Claim(ctx, proj, task.ID, id)
	if err != nil {
		return operatorError("claiming task %s: %w", task.ID, err)
	}
	if !claim.OK {
		return operatorError("task %s was claimed by %s before we could", task.ID, claim.ClaimedBy)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	workdir := gitutil.ResolveWorktree(task.Worktree, task.GitRemote, task.GitBranch, task.Workdir, home)

	launcher := supervisor.NewExecLauncher()
	logPath := ""
	if profile.Launch.LogDir != "" {
		logPath = profile.Launch.LogDir + "/" + task.ID + ".log"
	}

	handle, err := launcher.Launch(ctx, supervisor.LaunchSpec{
		TaskID:  task.ID,
		Command: profile.Launch.Command,
		Args:    profile.Launch.Args,
		Workdir: workdir,
		Env:     profile.Launch.Env,
		LogPath: logPath,
	})
	if err != nil {
		_ = api.Release(ctx, proj, task.ID)
		return operatorError("launching agent process for task %s: %w", task.ID, err)
	}

	log.Info("spawned agent", zap.String("task", task.ID), zap.Int("pid", handle.PID()))

	result, waitErr := handle.Wait()
	if waitErr != nil {
		log.Warn("agent process wait error", zap.String("task", task.ID), zap.Error(waitErr))
	}

	if err := api.Release(ctx, proj, task.ID); err != nil {
		log.Warn("release claim failed", zap.String("task", task.ID), zap.Error(err))
	}

	status := string(types.StatusCompleted)
	if result.Code != 0 {
		status = string(types.StatusBlocked)
	}
	if _, err := api.UpdateEntry(ctx, task.ID, apiclient.UpdateEntryRequest{Status: &status}); err != nil {
		log.Warn("updating task status failed", zap.String("task", task.ID), zap.Error(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "task %s exited with code %d\n", task.ID, result.Code)
	if result.Code != 0 {
		return operatorError("agent process for task %s exited with code %d", task.ID, result.Code)
	}
	return nil
}
