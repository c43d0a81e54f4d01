package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/supervisor"
	"github.com/brainforge/braind/internal/types"
)

// recoverFromPriorInstance implements spec.md §4.6's "Crash recovery":
// if a prior runner for this project is still alive, refuse to start a
// second one; otherwise clear the stale PID file and reconcile whatever
// the prior instance had persisted as running against the server's
// current view of those tasks.
func (l *Loop) recoverFromPriorInstance(ctx context.Context) error {
	if l.state.IsPrevInstanceLive(l.opts.Project) {
		return errAlreadyRunning{project: l.opts.Project, pid: l.state.ReadPID(l.opts.Project)}
	}
	_ = l.state.RemovePID(l.opts.Project)

	prevRunning, err := l.state.LoadRunning(l.opts.Project)
	if err != nil || len(prevRunning) == 0 {
		return nil
	}

	state := l.ensureRunnerState()
	for _, rt := range prevRunning {
		l.reconcileOneTask(ctx, rt.TaskID, state)
	}
	return l.state.SaveState(l.opts.Project, state)
}

// reconcileResume implements spec.md §4.6 step 2: on the first
// iteration after start, for every task the server still reports
// in_progress, attempt to reclaim it as a resumption rather than
// re-spawning a fresh agent process for work that may already be
// underway elsewhere.
func (l *Loop) reconcileResume(ctx context.Context, state *types.RunnerState) {
	inProgress, err := l.api.InProgress(ctx, l.opts.Project)
	if err != nil {
		l.log.Warn("resume: fetch in_progress tasks failed", zap.Error(err))
		return
	}
	for i := range inProgress {
		task := &inProgress[i]
		if _, alreadyTracked := state.Tasks[task.ID]; alreadyTracked {
			continue
		}
		claim, err := l.api.Claim(ctx, l.opts.Project, task.ID, l.opts.RunnerID)
		if err != nil {
			l.log.Warn("resume: claim failed", zap.String("task", task.ID), zap.Error(err))
			continue
		}
		if !claim.OK {
			l.log.Debug("resume: task claimed by another runner, leaving alone", zap.String("task", task.ID))
			continue
		}
		workdir := l.resolveWorkdir(task)
		if workdir == "" {
			l.log.Warn("resume: no resolvable workdir, releasing", zap.String("task", task.ID))
			_ = l.api.Release(ctx, l.opts.Project, task.ID)
			continue
		}
		l.claimAlreadyHeldAndSpawn(ctx, task, state, workdir)
	}
}

// claimAlreadyHeldAndSpawn spawns a fresh agent process for a task this
// loop just successfully reclaimed, bypassing claimAndSpawn's own Claim
// call since resume already performed it (and already validated the
// workdir), while still recording the spawn as a resumption.
func (l *Loop) claimAlreadyHeldAndSpawn(ctx context.Context, task *types.ClassifiedTask, state *types.RunnerState, workdir string) {
	logPath := ""
	if l.profile.Launch.LogDir != "" {
		logPath = l.profile.Launch.LogDir + "/" + task.ID + ".log"
	}
	spec := supervisor.LaunchSpec{
		TaskID:  task.ID,
		Command: l.profile.Launch.Command,
		Args:    l.profile.Launch.Args,
		Workdir: workdir,
		Env:     l.profile.Launch.Env,
		Stdin:   renderPrompt(task),
		LogPath: logPath,
	}
	pid, startedAt, err := l.sup.Spawn(ctx, spec)
	if err != nil {
		l.log.Warn("resume: spawn failed, releasing claim", zap.String("task", task.ID), zap.Error(err))
		_ = l.api.Release(ctx, l.opts.Project, task.ID)
		return
	}
	state.Tasks[task.ID] = &types.RunningTask{
		TaskID:    task.ID,
		AgentID:   l.opts.RunnerID,
		PID:       pid,
		Status:    types.ProcessRunning,
		Workdir:   workdir,
		LogPath:   logPath,
		StartedAt: startedAt,
	}
	l.log.Info("resumed task", zap.String("task", task.ID), zap.Int("pid", pid))
}

// reconcileOneTask is the crash-recovery path for a task the prior
// instance had recorded as running when it died: check the server's
// current status and either leave a legitimately-finished task alone,
// attempt a resume, or revert it to pending.
func (l *Loop) reconcileOneTask(ctx context.Context, taskID string, state *types.RunnerState) {
	entry, err := l.fetchEntry(ctx, taskID)
	if err != nil || entry == nil {
		l.log.Warn("crash recovery: could not fetch task status", zap.String("task", taskID), zap.Error(err))
		return
	}
	if entry.Status != types.StatusInProgress {
		return
	}

	claim, err := l.api.Claim(ctx, l.opts.Project, taskID, l.opts.RunnerID)
	if err != nil || !claim.OK {
		l.log.Debug("crash recovery: task has a foreign claim, leaving alone", zap.String("task", taskID))
		return
	}

	if !l.opts.Resume {
		pending := string(types.StatusPending)
		_, _ = l.api.UpdateEntry(ctx, taskID, apiclient.UpdateEntryRequest{Status: &pending})
		_ = l.api.Release(ctx, l.opts.Project, taskID)
		return
	}

	task := types.NewClassifiedTask(*entry)
	workdir := l.resolveWorkdir(task)
	if workdir == "" {
		pending := string(types.StatusPending)
		_, _ = l.api.UpdateEntry(ctx, taskID, apiclient.UpdateEntryRequest{Status: &pending})
		_ = l.api.Release(ctx, l.opts.Project, taskID)
		return
	}
	l.claimAlreadyHeldAndSpawn(ctx, task, state, workdir)
}

func (l *Loop) fetchEntry(ctx context.Context, taskID string) (*types.Entry, error) {
	return l.api.GetEntry(ctx, taskID)
}

type errAlreadyRunning struct {
	project string
	pid     int
}

func (e errAlreadyRunning) Error() string {
	return "a runner for project " + e.project + " is already running"
}
