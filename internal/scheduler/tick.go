package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/supervisor"
	"github.com/brainforge/braind/internal/types"
)

func currentPID() int { return os.Getpid() }

// tick runs exactly one iteration of spec.md §4.6's loop body: health
// check, first-iteration resume reconciliation, ready-fetch,
// claim/transition/spawn under the parallelism cap, and a non-blocking
// reap of finished children.
func (l *Loop) tick(ctx context.Context) error {
	state := l.ensureRunnerState()

	if !l.checkHealth(ctx) {
		l.log.Debug("backend unhealthy, deferring to next poll")
		return nil
	}

	if l.firstIteration {
		l.firstIteration = false
		if l.opts.Resume {
			l.reconcileResume(ctx, state)
		}
	}

	l.reap(state)

	if err := l.dispatch(ctx, state); err != nil {
		return err
	}

	state.UpdatedAt = time.Now().UTC()
	if err := l.state.SaveState(l.opts.Project, state); err != nil {
		l.log.Warn("persist runner state failed", zap.Error(err))
	}
	return nil
}

// checkHealth reports whether the backend is reachable, reusing the
// previous answer until healthLimiter next allows a fresh probe (spec.md
// §4.6 step 1: "cached 10s" — the interval itself comes from
// poll.health_cache_seconds).
func (l *Loop) checkHealth(ctx context.Context) bool {
	if !l.healthLimiter.Allow() {
		return l.healthy
	}
	status, err := l.api.Health(ctx)
	l.healthy = err == nil && status != nil && status.BackendAvailable
	if err != nil {
		l.log.Warn("health check failed", zap.Error(err))
	}
	return l.healthy
}

// dispatch fetches the ready queue once (spec.md §4.6 step 3) and pops
// from it while there's spawn capacity (step 4): a task already being
// tracked as running, or one whose claim conflicts with another runner,
// is dropped rather than retried within the same tick — it may surface
// again on the next poll.
func (l *Loop) dispatch(ctx context.Context, state *types.RunnerState) error {
	if l.opts.DryRun {
		return l.dispatchDryRun(ctx)
	}

	ready, err := l.api.ListReady(ctx, l.opts.Project)
	if err != nil {
		return fmt.Errorf("fetch ready tasks: %w", err)
	}

	maxParallel := l.profile.Launch.MaxParallel
	for i := range ready {
		if l.sup.Count() >= maxParallel {
			break
		}
		task := &ready[i]
		if _, alreadyRunning := state.Tasks[task.ID]; alreadyRunning {
			continue
		}
		l.claimAndSpawn(ctx, task, state, false)
	}
	return nil
}

// claimAndSpawn executes spec.md §4.6 step 4.b-f for a single task:
// claim, transition to in_progress, resolve workdir, spawn, record.
func (l *Loop) claimAndSpawn(ctx context.Context, task *types.ClassifiedTask, state *types.RunnerState, isResume bool) {
	logger := l.log.With(zap.String("task", task.ID))

	claim, err := l.api.Claim(ctx, l.opts.Project, task.ID, l.opts.RunnerID)
	if err != nil {
		logger.Warn("claim request failed", zap.Error(err))
		return
	}
	if !claim.OK {
		logger.Debug("claim conflict, trying next task", zap.String("claimedBy", claim.ClaimedBy))
		return
	}

	inProgress := string(types.StatusInProgress)
	if _, err := l.api.UpdateEntry(ctx, task.ID, apiclient.UpdateEntryRequest{Status: &inProgress}); err != nil {
		logger.Warn("transition to in_progress failed, releasing claim", zap.Error(err))
		_ = l.api.Release(ctx, l.opts.Project, task.ID)
		return
	}

	workdir := l.resolveWorkdir(task)
	if workdir == "" {
		logger.Warn("no resolvable workdir, releasing claim and skipping")
		_ = l.api.Release(ctx, l.opts.Project, task.ID)
		pending := string(types.StatusPending)
		_, _ = l.api.UpdateEntry(ctx, task.ID, apiclient.UpdateEntryRequest{Status: &pending})
		return
	}

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
		logger.Warn("spawn failed, releasing claim", zap.Error(err))
		_ = l.api.Release(ctx, l.opts.Project, task.ID)
		pending := string(types.StatusPending)
		_, _ = l.api.UpdateEntry(ctx, task.ID, apiclient.UpdateEntryRequest{Status: &pending})
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
	logger.Info("spawned agent", zap.Int("pid", pid), zap.Bool("resume", isResume))
}

// dispatchDryRun reports what would be claimed and spawned without
// actually claiming or spawning anything.
func (l *Loop) dispatchDryRun(ctx context.Context) error {
	ready, err := l.api.ListReady(ctx, l.opts.Project)
	if err != nil {
		return fmt.Errorf("fetch ready tasks: %w", err)
	}
	for i := range ready {
		l.log.Info("dry-run: would claim and spawn", zap.String("task", ready[i].ID), zap.String("title", ready[i].Title))
	}
	return nil
}

// reap drains finished children non-blockingly, per spec.md §4.6 step
// 5 / §4.7's "must never block the Scheduler Loop".
func (l *Loop) reap(state *types.RunnerState) {
	for {
		select {
		case event := <-l.sup.Exits():
			l.handleExit(event, state)
		default:
			return
		}
	}
}

func (l *Loop) handleExit(event supervisor.ExitEvent, state *types.RunnerState) {
	logger := l.log.With(zap.String("task", event.TaskID), zap.Int("pid", event.PID))

	running, ok := state.Tasks[event.TaskID]
	if ok {
		exitedAt := event.ExitedAt
		running.ExitedAt = &exitedAt
		code := event.Result.Code
		running.ExitCode = &code
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiclient.DefaultTimeout)
	defer cancel()

	if event.WaitError == nil && event.Result.Code == 0 {
		completed := string(types.StatusCompleted)
		if _, err := l.api.UpdateEntry(ctx, event.TaskID, apiclient.UpdateEntryRequest{Status: &completed}); err != nil {
			logger.Warn("mark completed failed", zap.Error(err))
		}
		if ok {
			running.Status = types.ProcessExited
		}
		logger.Info("task completed")
	} else {
		blocked := string(types.StatusBlocked)
		note := fmt.Sprintf("\n\n## Agent Exit\n\nAgent process exited with code %d.", event.Result.Code)
		if _, err := l.api.UpdateEntry(ctx, event.TaskID, apiclient.UpdateEntryRequest{Status: &blocked, Append: &note}); err != nil {
			logger.Warn("mark blocked failed", zap.Error(err))
		}
		if ok {
			running.Status = types.ProcessFailed
		}
		logger.Warn("task exited non-zero, marked blocked", zap.Int("code", event.Result.Code))
	}

	_ = l.api.Release(ctx, l.opts.Project, event.TaskID)
	delete(state.Tasks, event.TaskID)
}
